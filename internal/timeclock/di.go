package timeclock

import (
	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Engine, error) {
		store := do.MustInvoke[repository.UserRecordStore](i)
		return NewEngine(store), nil
	})
}
