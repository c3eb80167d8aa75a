package notifier

import (
	"github.com/foxseedlab/bateponto/internal/config"
	"github.com/foxseedlab/bateponto/internal/notifier"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*AMQPPublisher, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.AMQPURL == "" {
			return nil, nil
		}
		return NewAMQPPublisher(c.AMQPURL, c.AMQPQueue)
	})
	do.Provide(injector, func(i do.Injector) (notifier.Notifier, error) {
		c := do.MustInvoke[*config.Config](i)
		var out Fanout
		if c.ShiftWebhookURL != "" {
			out = append(out, NewHTTPSender(c.ShiftWebhookURL, DefaultRetryPolicy))
		}
		publisher, err := do.Invoke[*AMQPPublisher](i)
		if err != nil {
			return nil, err
		}
		if publisher != nil {
			out = append(out, publisher)
		}
		if len(out) == 0 {
			return Noop{}, nil
		}
		return out, nil
	})
}
