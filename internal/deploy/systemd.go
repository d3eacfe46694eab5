package deploy

// The service supervisor is external. The pipeline only signals it through
// these command lines and observes their exit status.

func RestartCommand(unit string) string {
	return "sudo systemctl restart " + unit
}

func StatusCommand(unit string) string {
	return "systemctl is-active " + unit
}
