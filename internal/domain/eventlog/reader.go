// Package eventlog parses one raw behavioral log into typed event streams.
//
// The task software writes a single flat file whose lines carry a different
// number of tab-delimited fields per event type, so lines are split
// textually by their type marker before fixed-width decoding.
package eventlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"empath/internal/domain/model"
	"empath/pkg/metrics"
)

// Field counts per line type.
const (
	stimulusFieldCount = 13
	responseFieldCount = 7
)

// Log holds the typed event collections parsed from one behavioral log.
type Log struct {
	Pictures  []model.StimulusEvent
	Videos    []model.StimulusEvent
	Responses []model.ResponseEvent // deduplicated by trial index

	// AnchorTime is the device-clock tick of acquisition start; all
	// relative times in the run are computed against it.
	AnchorTime int64
}

// Read parses the log file at path.
func Read(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableLog, path, err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse parses one log from r. The name is used for error context only.
func Parse(r io.Reader, name string) (*Log, error) {
	l := &Log{}

	// First occurrence per trial index wins in the Response stream; the
	// task software repeats response lines within a trial.
	seenTrials := make(map[int]struct{})

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")

		switch {
		case strings.Contains(line, "Picture"):
			ev, err := parseStimulus(line)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %w", ErrUnreadableLog, name, lineNo, err)
			}
			l.Pictures = append(l.Pictures, ev)

		case strings.Contains(line, "Response"):
			ev, err := parseResponse(line)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %w", ErrUnreadableLog, name, lineNo, err)
			}
			if _, seen := seenTrials[ev.Trial]; seen {
				metrics.RecordDuplicateResponse()
				continue
			}
			seenTrials[ev.Trial] = struct{}{}
			l.Responses = append(l.Responses, ev)

		case strings.Contains(line, "Video"):
			ev, err := parseStimulus(line)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %w", ErrUnreadableLog, name, lineNo, err)
			}
			l.Videos = append(l.Videos, ev)
		}
		// Header and scenario lines carry no type marker and are skipped.
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableLog, name, err)
	}

	// The first Picture event must be the acquisition anchor; its
	// corresponding first Response defines time zero for the run.
	if len(l.Pictures) == 0 || l.Pictures[0].Code != model.AnchorCode {
		return nil, fmt.Errorf("%w: %s", ErrMissingAnchor, name)
	}
	if len(l.Responses) == 0 {
		return nil, fmt.Errorf("%w: %s: no response events", ErrMissingAnchor, name)
	}
	l.AnchorTime = l.Responses[0].Time

	return l, nil
}

func parseStimulus(line string) (model.StimulusEvent, error) {
	var ev model.StimulusEvent

	fields := splitFields(line)
	if len(fields) < stimulusFieldCount {
		return ev, fmt.Errorf("expected %d fields, got %d", stimulusFieldCount, len(fields))
	}

	ev.Subject = fields[0]
	ev.Code = fields[3]
	ev.StimType = fields[11]

	var err error
	if ev.Trial, err = strconv.Atoi(fields[1]); err != nil {
		return ev, fmt.Errorf("trial: %w", err)
	}
	if ev.Time, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
		return ev, fmt.Errorf("time: %w", err)
	}
	if ev.TTime, err = strconv.ParseInt(fields[5], 10, 64); err != nil {
		return ev, fmt.Errorf("ttime: %w", err)
	}
	if ev.Uncertainty1, err = strconv.ParseInt(fields[6], 10, 64); err != nil {
		return ev, fmt.Errorf("uncertainty1: %w", err)
	}
	if ev.Duration, err = strconv.ParseInt(fields[7], 10, 64); err != nil {
		return ev, fmt.Errorf("duration: %w", err)
	}
	if ev.Uncertainty2, err = strconv.ParseInt(fields[8], 10, 64); err != nil {
		return ev, fmt.Errorf("uncertainty2: %w", err)
	}
	if ev.ReqTime, err = strconv.ParseInt(fields[9], 10, 64); err != nil {
		return ev, fmt.Errorf("reqtime: %w", err)
	}
	if ev.ReqDuration, err = strconv.ParseInt(fields[10], 10, 64); err != nil {
		return ev, fmt.Errorf("reqduration: %w", err)
	}
	if ev.PairIndex, err = strconv.Atoi(fields[12]); err != nil {
		return ev, fmt.Errorf("pairindex: %w", err)
	}

	return ev, nil
}

func parseResponse(line string) (model.ResponseEvent, error) {
	var ev model.ResponseEvent

	fields := splitFields(line)
	if len(fields) < responseFieldCount {
		return ev, fmt.Errorf("expected %d fields, got %d", responseFieldCount, len(fields))
	}

	ev.Subject = fields[0]
	ev.Code = fields[3]

	var err error
	if ev.Trial, err = strconv.Atoi(fields[1]); err != nil {
		return ev, fmt.Errorf("trial: %w", err)
	}
	if ev.Time, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
		return ev, fmt.Errorf("time: %w", err)
	}
	if ev.TTime, err = strconv.ParseInt(fields[5], 10, 64); err != nil {
		return ev, fmt.Errorf("ttime: %w", err)
	}
	if ev.Uncertainty1, err = strconv.ParseInt(fields[6], 10, 64); err != nil {
		return ev, fmt.Errorf("uncertainty1: %w", err)
	}

	return ev, nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
