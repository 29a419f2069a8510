package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/provider"
)

const defaultFetchTimeout = 10 * time.Second

var _ provider.PositionProvider = (*Provider)(nil)

// Provider adapts an MQTT device link to the PositionProvider capability.
// All watchers and one-shot fetches share a single broker subscription; the
// provider fans messages out internally.
type Provider struct {
	client       mqtt.Client
	topic        string
	fetchTimeout time.Duration

	mu         sync.Mutex
	nextID     uint64
	handlers   map[uint64]func(domain.RawPosition)
	subscribed bool
}

func NewProvider(client mqtt.Client, topic string) *Provider {
	return &Provider{
		client:       client,
		topic:        topic,
		fetchTimeout: defaultFetchTimeout,
		handlers:     map[uint64]func(domain.RawPosition){},
	}
}

// RequestForegroundPermission reports whether position access is currently
// available. Access is granted for as long as the device link is up; a down
// link is a denial, not an error.
func (p *Provider) RequestForegroundPermission(_ context.Context) (bool, error) {
	return p.client.IsConnectionOpen(), nil
}

func (p *Provider) GetCurrentPosition(ctx context.Context) (domain.RawPosition, error) {
	ch := make(chan domain.RawPosition, 1)
	id, err := p.addHandler(func(raw domain.RawPosition) {
		select {
		case ch <- raw:
		default:
		}
	})
	if err != nil {
		return domain.RawPosition{}, err
	}
	defer p.removeHandler(id)

	timer := time.NewTimer(p.fetchTimeout)
	defer timer.Stop()

	select {
	case raw := <-ch:
		return raw, nil
	case <-ctx.Done():
		return domain.RawPosition{}, ctx.Err()
	case <-timer.C:
		return domain.RawPosition{}, domain.ErrPlatformUnavailable
	}
}

func (p *Provider) WatchPosition(onUpdate func(domain.RawPosition)) (provider.Subscription, error) {
	id, err := p.addHandler(onUpdate)
	if err != nil {
		return nil, err
	}
	return &watch{provider: p, id: id}, nil
}

type watch struct {
	provider *Provider
	id       uint64
	once     sync.Once
}

func (w *watch) Remove() error {
	var err error
	w.once.Do(func() {
		err = w.provider.removeHandler(w.id)
	})
	return err
}

func (p *Provider) addHandler(fn func(domain.RawPosition)) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.subscribed {
		token := p.client.Subscribe(p.topic, 1, p.dispatch)
		if token.Wait() && token.Error() != nil {
			return 0, fmt.Errorf("subscribe %s: %w", p.topic, token.Error())
		}
		p.subscribed = true
	}

	p.nextID++
	id := p.nextID
	p.handlers[id] = fn
	return id, nil
}

func (p *Provider) removeHandler(id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.handlers, id)
	if len(p.handlers) > 0 || !p.subscribed {
		return nil
	}

	p.subscribed = false
	token := p.client.Unsubscribe(p.topic)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("unsubscribe %s: %w", p.topic, token.Error())
	}
	return nil
}

func (p *Provider) dispatch(_ mqtt.Client, msg mqtt.Message) {
	var raw domain.RawPosition
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("malformed position payload: %v", err)
		return
	}

	p.mu.Lock()
	handlers := make([]func(domain.RawPosition), 0, len(p.handlers))
	for _, fn := range p.handlers {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(raw)
	}
}
