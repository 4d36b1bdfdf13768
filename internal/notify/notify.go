// Package notify sends desktop notifications when plan runs finish.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Notifier sends system notifications.
type Notifier struct {
	Enabled bool
	// run executes the notification command; tests replace it.
	run func(name string, args ...string) error
}

// Send displays a notification. Only macOS is supported; elsewhere it is a no-op.
func (n *Notifier) Send(title, message string) error {
	if n == nil || !n.Enabled {
		return nil
	}
	if runtime.GOOS != "darwin" && n.run == nil {
		return nil
	}
	return n.exec("osascript", "-e", appleScript(title, message))
}

func (n *Notifier) exec(name string, args ...string) error {
	run := n.run
	if run == nil {
		run = func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		}
	}
	if err := run(name, args...); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

var appleScriptQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func appleScript(title, message string) string {
	return fmt.Sprintf(`display notification "%s" with title "%s"`,
		appleScriptQuoter.Replace(message), appleScriptQuoter.Replace(title))
}

// FormatRunComplete formats the notification for a finished plan run.
func FormatRunComplete(goalID, status string, stepsRun, stepsTotal int) (title, message string) {
	switch status {
	case "completed":
		title = "goap: plan completed"
		message = fmt.Sprintf("%s: %d/%d steps succeeded", goalID, stepsRun, stepsTotal)
	case "cancelled":
		title = "goap: plan cancelled"
		message = fmt.Sprintf("%s: stopped after %d/%d steps", goalID, stepsRun, stepsTotal)
	default:
		title = "goap: plan failed"
		message = fmt.Sprintf("%s: step %d/%d failed", goalID, stepsRun, stepsTotal)
	}
	return title, message
}
