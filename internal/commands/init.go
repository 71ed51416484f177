package commands

import "github.com/keshon/slashroute/pkg/slash"

// Declare attaches every command group to c.
func Declare(c *slash.Collector, env Env) error {
	for _, declare := range []func(*slash.Collector, Env) error{
		declareCore,
		declareDice,
		declareClock,
		declareMenus,
		declareMod,
	} {
		if err := declare(c, env); err != nil {
			return err
		}
	}
	return nil
}
