package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type ItemOutput struct {
	ID          string
	Label       string
	Status      string
	Total       int64 // -1 until the size is known
	Downloaded  int64
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
	Index       int
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders live per-item progress. It implements
// utils.ProgressObserver, so downloaders report to it directly.
type Manager struct {
	out         io.Writer
	outputs     map[string]*ItemOutput
	mutex       sync.RWMutex
	numLines    int
	maxDone     int // completed items kept on screen
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	itemCount   int
	displayWg   sync.WaitGroup
}

func NewManager(out io.Writer) *Manager {
	return &Manager{
		out:         out,
		outputs:     make(map[string]*ItemOutput),
		errors:      []ErrorReport{},
		maxDone:     8,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Start(id, label string, total int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Label = label
		info.Total = total
		info.LastUpdated = time.Now()
		return
	}
	m.itemCount++
	m.outputs[id] = &ItemOutput{
		ID:          id,
		Label:       label,
		Status:      "pending",
		Total:       total,
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		Index:       m.itemCount,
	}
}

func (m *Manager) Add(id string, n int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Downloaded += n
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Finish(id string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.outputs[id]
	if !exists {
		return
	}
	info.Complete = true
	info.LastUpdated = time.Now()
	if err == nil {
		info.Status = "success"
		return
	}
	info.Status = "error"
	info.Error = err
	m.errors = append(m.errors, ErrorReport{
		Label: info.Label,
		Error: err,
		Time:  time.Now(),
	})
}

// Snapshot returns a copy of the state of item id.
func (m *Manager) Snapshot(id string) (ItemOutput, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if info, exists := m.outputs[id]; exists {
		return *info, true
	}
	return ItemOutput{}, false
}

func (m *Manager) GetStatusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sortItems() (active, completed []*ItemOutput) {
	var all []*ItemOutput
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	for _, f := range all {
		if f.Complete {
			completed = append(completed, f)
		} else {
			active = append(active, f)
		}
	}
	return active, completed
}

func (m *Manager) renderItem(info *ItemOutput) []string {
	indent := strings.Repeat(" ", 2)
	elapsed := time.Since(info.StartTime)
	if info.Complete {
		elapsed = info.LastUpdated.Sub(info.StartTime)
	}
	elapsedStr := elapsed.Round(time.Second).String()
	var message string
	switch info.Status {
	case "success":
		message = successStyle.Render(fmt.Sprintf("%s (%s)", info.Label, FormatBytes(uint64(max(0, info.Downloaded)))))
	case "error":
		message = errorStyle.Render(info.Label)
	default:
		message = pendingStyle.Render(info.Label)
	}
	lines := []string{fmt.Sprintf("%s%s %s %s", indent, m.GetStatusIndicator(info.Status), debugStyle.Render(elapsedStr), message)}
	if !info.Complete && info.Total > 0 {
		text := fmt.Sprintf("%s / %s", FormatBytes(uint64(info.Downloaded)), FormatBytes(uint64(info.Total)))
		bar := PrintProgressBar(info.Downloaded, info.Total, 30)
		speed := FormatSpeed(info.Downloaded, elapsed.Seconds())
		lines = append(lines, fmt.Sprintf("%s%s%s %s %s", strings.Repeat(" ", 2+4), bar, debugStyle.Render(text), StyleSymbols["bullet"], debugStyle.Render(speed)))
	}
	return lines
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}

	lineCount := 0
	active, completed := m.sortItems()
	if len(completed) > m.maxDone {
		fmt.Fprintln(m.out, infoStyle.Render(fmt.Sprintf("  %d items completed earlier ...", len(completed)-m.maxDone)))
		completed = completed[len(completed)-m.maxDone:]
		lineCount++
	}
	for _, f := range append(completed, active...) {
		for _, line := range m.renderItem(f) {
			if lineCount >= availableLines {
				break
			}
			fmt.Fprintln(m.out, line)
			lineCount++
		}
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

// ShowErrors lists every failed item with its reason.
func (m *Manager) ShowErrors() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if len(m.errors) == 0 {
		return
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
	for i, err := range m.errors {
		fmt.Fprintf(m.out, "%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", err.Time.Format("15:04:05"))),
			errorStyle.Render(err.Label))
		fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(fmt.Sprintf("Error: %v", err.Error)))
	}
}
