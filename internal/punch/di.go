package punch

import (
	"github.com/foxseedlab/bateponto/internal/config"
	"github.com/foxseedlab/bateponto/internal/discord"
	"github.com/foxseedlab/bateponto/internal/notifier"
	"github.com/foxseedlab/bateponto/internal/timeclock"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		engine := do.MustInvoke[*timeclock.Engine](i)
		dc := do.MustInvoke[discord.Client](i)
		n := do.MustInvoke[notifier.Notifier](i)
		return NewHandler(cfg, engine, dc, n), nil
	})
}
