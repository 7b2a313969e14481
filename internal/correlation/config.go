package correlation

// Config holds the constant sets the correlation rules test artifacts
// against. DefaultConfig reproduces the built-in values; an operator
// may override individual sets via internal/config.
type Config struct {
	LegitimatePathPrefixes    []string
	InputHandlerNames         []string
	SuspiciousPorts           map[int]bool
	KeyloggingAPIs            []string
	CredentialAPIs            []string
	CmdlineObfuscationMarkers []string
	UnusualPathSubstrings     []string
}

// DefaultConfig returns the built-in constant sets.
func DefaultConfig() Config {
	return Config{
		LegitimatePathPrefixes: []string{
			`c:\windows\`,
			`c:\program files\`,
			`c:\program files (x86)\`,
			`c:\programdata\`,
		},
		InputHandlerNames: []string{"textinputhost.exe", "ctfmon.exe", "osk.exe"},
		SuspiciousPorts: map[int]bool{
			1337: true, 4444: true, 5555: true, 8082: true, 8443: true, 31337: true,
		},
		KeyloggingAPIs: []string{
			"GetAsyncKeyState", "SetWindowsHookEx", "NtUserGetRawInputData",
			"NtReadFile", "NtUserSendInput", "ReadFile",
		},
		CredentialAPIs: []string{
			"CredRead", "CredWrite", "CredEnumerate", "LsaRetrievePrivateData",
		},
		CmdlineObfuscationMarkers: []string{"-enc", "base64", "bypass", "-nop"},
		UnusualPathSubstrings:     []string{`\temp\`, `\appdata\`, `\users\`},
	}
}
