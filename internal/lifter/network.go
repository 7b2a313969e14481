package lifter

import (
	"fmt"

	"github.com/forensix-labs/volcorrelate/internal/model"
)

// LiftNetwork builds NetworkEndpoint entities from a netscan-style
// plugin's rows. Both ports are mandatory (a connection without a
// parseable port number carries no useful correlation signal and is
// skipped). IsSuspicious is left false; the correlation engine's
// network rule sets it.
func LiftNetwork(rows []map[string]string) ([]*model.NetworkEndpoint, []string) {
	var out []*model.NetworkEndpoint
	var warnings []string
	for i, row := range rows {
		localPort, lok := parseInt(firstNonEmpty(row, "LocalPort"))
		remotePort, rok := parseInt(firstNonEmpty(row, "ForeignPort", "RemotePort"))
		if !lok || !rok {
			warnings = append(warnings, fmt.Sprintf("row %d: missing or invalid port, skipped", i))
			continue
		}
		e := &model.NetworkEndpoint{
			Proto:      toUpper(optionalString(row, "Proto", "Protocol")),
			LocalAddr:  optionalString(row, "LocalAddr", "LocalAddress"),
			LocalPort:  localPort,
			RemoteAddr: optionalString(row, "ForeignAddr", "RemoteAddress"),
			RemotePort: remotePort,
		}
		if pid, ok := parseInt(firstNonEmpty(row, "PID", "Pid")); ok {
			e.ProcessPID = &pid
		}
		out = append(out, e)
	}
	return out, warnings
}
