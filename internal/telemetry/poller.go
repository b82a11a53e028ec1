package telemetry

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller calls tick on a fixed interval until stopped.
type Poller struct {
	deviceID string
	interval time.Duration
	tick     func()
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewPoller(deviceID string, interval time.Duration, tick func(), logger *zap.Logger) *Poller {
	return &Poller{
		deviceID: deviceID,
		interval: interval,
		tick:     tick,
		logger:   logger,
	}
}

// Start launches the loop. Starting a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.stopChan = make(chan struct{})
	p.wg.Add(1)

	go p.pollLoop(p.stopChan)

	p.logger.Debug("Poller started",
		zap.String("device", p.deviceID),
		zap.Duration("interval", p.interval))
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()

	p.logger.Debug("Poller stopped", zap.String("device", p.deviceID))
}

func (p *Poller) pollLoop(stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}
