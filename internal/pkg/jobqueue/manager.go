package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue      *Queue
	scanTicker *time.Ticker
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// ReminderScanInterval is how often the due-vehicle scan runs.
const ReminderScanInterval = 1 * time.Hour

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:  NewQueue(3),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start the due-vehicle reminder scanner
	m.scanTicker = time.NewTicker(ReminderScanInterval)
	m.wg.Add(1)
	go m.reminderScanWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.scanTicker != nil {
		m.scanTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish before clearing the channel;
	// a worker re-entering its select must still see the closed channel.
	m.wg.Wait()
	m.stopCh = nil

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// reminderScanWorker runs periodically to enqueue reminder jobs for vehicles
// whose MOT falls due inside the reminder window
func (m *Manager) reminderScanWorker() {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started reminder scan worker (interval: %s)", ReminderScanInterval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Reminder scan worker stopping")
			return
		case <-m.scanTicker.C:
			log.Debug("[JobQueue Manager] Running due-vehicle reminder scan")
			if err := m.queue.scanDueVehiclesOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Reminder scan error: %v", err)
			}
		}
	}
}

// RunReminderScanOnce exposes a manual trigger for a single reminder scan.
func (m *Manager) RunReminderScanOnce() error {
	return m.queue.scanDueVehiclesOnce()
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
