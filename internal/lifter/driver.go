package lifter

import "github.com/forensix-labs/volcorrelate/internal/model"

// LiftDrivers builds Driver entities from a driver-scan plugin's rows.
// A row without a name is skipped.
func LiftDrivers(rows []map[string]string) ([]*model.Driver, []string) {
	var out []*model.Driver
	for _, row := range rows {
		name := optionalString(row, "Name", "DriverName")
		if name == "" {
			continue
		}
		out = append(out, &model.Driver{
			Name:    name,
			Path:    optionalString(row, "Path", "ServiceKey"),
			Created: optionalString(row, "CreateTime", "Created"),
		})
	}
	return out, nil
}

// LiftServices builds Service entities from a service-list plugin's
// rows. A row without a name is skipped.
func LiftServices(rows []map[string]string) ([]*model.Service, []string) {
	var out []*model.Service
	for _, row := range rows {
		name := optionalString(row, "Name", "ServiceName")
		if name == "" {
			continue
		}
		svc := &model.Service{
			Name:        name,
			DisplayName: optionalString(row, "DisplayName", "Display"),
			Path:        optionalString(row, "BinaryPath", "Path", "ImagePath"),
			ServiceType: optionalString(row, "Type", "ServiceType"),
			State:       optionalString(row, "State", "Status"),
		}
		if pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid")); ok {
			svc.PID = &pid
		}
		out = append(out, svc)
	}
	return out, nil
}
