package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ReviewLogger manages the trace file for a single SoW review run. Each run
// gets its own timestamped file under review_logs/ recording the compiled
// prompts, raw responses, and scoring outcome, so a bad review can be
// replayed offline.
type ReviewLogger struct {
	projectID string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
}

// StartReviewLogging opens the trace file for a review of the given project.
func StartReviewLogging(projectID string) (*ReviewLogger, error) {
	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join("review_logs", fmt.Sprintf("review_%s_%s.log", projectID, timestamp))

	if err := os.MkdirAll("review_logs", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &ReviewLogger{
		projectID: projectID,
		logFile:   logFile,
		startTime: time.Now(),
	}
	logger.writeHeader()
	return logger, nil
}

// Log writes a timestamped message to the trace file.
func (r *ReviewLogger) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.write(fmt.Sprintf(format, args...))
}

// LogSection writes a section header.
func (r *ReviewLogger) LogSection(title string) {
	if r == nil {
		return
	}
	separator := strings.Repeat("=", 80)
	r.Log("%s", separator)
	r.Log("= %s", title)
	r.Log("%s", separator)
}

// LogPrompt records the compiled prompt sent to the generation capability.
func (r *ReviewLogger) LogPrompt(agentID, prompt string) {
	if r == nil {
		return
	}
	r.LogSection(fmt.Sprintf("PROMPT - agent %s", agentID))
	r.Log("Prompt length: %d characters", len(prompt))
	r.mutex.Lock()
	r.logFile.WriteString(prompt + "\n")
	r.mutex.Unlock()
}

// LogResponse records the raw capability response.
func (r *ReviewLogger) LogResponse(agentID, response string) {
	if r == nil {
		return
	}
	r.LogSection(fmt.Sprintf("RESPONSE - agent %s", agentID))
	r.Log("Response length: %d characters", len(response))
	r.mutex.Lock()
	r.logFile.WriteString(response + "\n")
	r.mutex.Unlock()
}

// LogOutcome records the review's scored outcome.
func (r *ReviewLogger) LogOutcome(score int, quality string, issueCount int) {
	if r == nil {
		return
	}
	r.LogSection("OUTCOME")
	r.Log("Score: %d  Quality: %s  Issues: %d", score, quality, issueCount)
}

// LogError records an error encountered during the run.
func (r *ReviewLogger) LogError(stage string, err error) {
	if r == nil {
		return
	}
	r.Log("ERROR in %s: %v", stage, err)
}

// Close finalizes the trace file.
func (r *ReviewLogger) Close() {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile == nil {
		return
	}
	r.write(fmt.Sprintf("Review logging completed. Total duration: %v", time.Since(r.startTime).Round(time.Millisecond)))
	r.logFile.Close()
	r.logFile = nil
}

// write appends a single timestamped line. Callers hold the mutex.
func (r *ReviewLogger) write(message string) {
	if r.logFile == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(r.startTime).Round(time.Millisecond)
	r.logFile.WriteString(fmt.Sprintf("[%s] [+%v] %s\n", timestamp, elapsed, message))
	r.logFile.Sync()
}

func (r *ReviewLogger) writeHeader() {
	header := fmt.Sprintf(`BUILDREVIEW SOW REVIEW LOG
Project ID: %s
Start Time: %s
Log Format: [HH:MM:SS.mmm] [+duration] message

`, r.projectID, r.startTime.Format("2006-01-02 15:04:05"))
	r.logFile.WriteString(header)
	r.logFile.Sync()
}
