package bootstrapper

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

// ConsoleUI is a terminal UI collaborator: a spinner for progress and a
// readline prompt for the handful of synchronous decisions the core
// needs (startup action, recoverable-error policy).
type ConsoleUI struct {
	rl      *readline.Instance
	spin    *spinner.Spinner
	label   string
	confirm bool // accept defaults without prompting, for unattended runs
}

// NewConsoleUI builds a console collaborator. confirm=true accepts every
// default instead of prompting, for CI/unattended invocations of
// cmd/bundlectl's console subcommand.
func NewConsoleUI(confirm bool) (*ConsoleUI, error) {
	c := &ConsoleUI{confirm: confirm}
	if !confirm {
		rl, err := readline.NewEx(&readline.Config{Prompt: "bundlecore> "})
		if err != nil {
			return nil, errors.Wrap(errors.KindFatalSystem, err, "initializing console prompt")
		}
		c.rl = rl
	}
	c.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	return c, nil
}

func (c *ConsoleUI) OnStartup(defaultAction model.RequestedAction) (model.RequestedAction, error) {
	fmt.Printf("bundlecore: requested action %s\n", defaultAction)
	if c.confirm || c.rl == nil {
		return defaultAction, nil
	}
	c.rl.SetPrompt(fmt.Sprintf("action [%s]> ", defaultAction))
	line, err := c.rl.Readline()
	if err == readline.ErrInterrupt || err == io.EOF {
		return model.RequestedAction(0), errors.New(errors.KindUserCancelled, "startup cancelled")
	}
	if err != nil {
		return defaultAction, errors.Wrap(errors.KindFatalSystem, err, "reading startup prompt")
	}
	line = strings.TrimSpace(strings.ToLower(line))
	switch line {
	case "", "default":
		return defaultAction, nil
	case "install":
		return model.ActionInstallBundle, nil
	case "repair":
		return model.ActionRepairBundle, nil
	case "modify":
		return model.ActionModifyBundle, nil
	case "uninstall":
		return model.ActionUninstallBundle, nil
	case "layout":
		return model.ActionLayout, nil
	default:
		fmt.Printf("unrecognized action %q, using default %s\n", line, defaultAction)
		return defaultAction, nil
	}
}

func (c *ConsoleUI) OnDetectComplete(err error) errors.UIAction {
	if err != nil {
		fmt.Printf("detect failed: %v\n", err)
		return errors.UIActionCancel
	}
	fmt.Println("detect complete")
	return errors.UIActionNone
}

func (c *ConsoleUI) OnPlanComplete(plan *model.Plan, err error) errors.UIAction {
	if err != nil {
		fmt.Printf("plan failed: %v\n", err)
		return errors.UIActionCancel
	}
	fmt.Printf("plan complete: %d package(s), estimated size %d bytes\n", plan.PackagesTotal, plan.EstimatedSize)
	return errors.UIActionNone
}

func (c *ConsoleUI) OnProgress(label string, done, total int64) {
	if c.label != label {
		c.spin.Stop()
		c.label = label
		c.spin.Suffix = " " + label
		c.spin.Start()
	}
	if total > 0 && done >= total {
		c.spin.Stop()
	}
}

func (c *ConsoleUI) OnRecoverableError(err error) errors.UIAction {
	c.spin.Stop()
	kind := errors.KindOf(err)
	fmt.Printf("recoverable error (%s): %v\n", kind, err)
	if c.confirm || c.rl == nil {
		return errors.UIActionCancel
	}
	c.rl.SetPrompt("[r]etry / [i]gnore / [c]ancel> ")
	line, err2 := c.rl.Readline()
	if err2 != nil {
		return errors.UIActionCancel
	}
	switch strings.TrimSpace(strings.ToLower(line)) {
	case "r", "retry":
		return errors.UIActionRetry
	case "i", "ignore":
		return errors.UIActionIgnore
	default:
		return errors.UIActionCancel
	}
}

func (c *ConsoleUI) OnApplyComplete(err error) {
	c.spin.Stop()
	if err != nil {
		fmt.Printf("apply failed: %v\n", err)
		return
	}
	fmt.Println("apply complete")
}

func (c *ConsoleUI) Close() error {
	c.spin.Stop()
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}
