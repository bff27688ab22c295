package ping

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"netdiag/internal/models"
)

const (
	lossMarker  = "xmt/rcv/%loss"
	statsMarker = "min/avg/max"
)

// ParseSkip describes a summary line that was dropped because it could not
// be parsed. The host it named is reconciled as down.
type ParseSkip struct {
	Line string
	Err  error
}

func (s ParseSkip) Error() string {
	return fmt.Sprintf("skip %q: %v", s.Line, s.Err)
}

func (s ParseSkip) Unwrap() error {
	return s.Err
}

// Parse converts fping summary output into one result per requested host.
func Parse(raw string, requested []string) map[string]models.ProbeResult {
	return ParseWithTime(raw, requested, time.Now(), nil)
}

// ParseWithTime is Parse with an explicit cycle timestamp and an optional
// hook that receives every skipped line.
//
// Summary lines look like
//
//	8.8.8.8 : xmt/rcv/%loss = 4/4/0%, min/avg/max = 25.0/28.7/35.1
//	1.1.1.1 : xmt/rcv/%loss = 4/0/100%
//
// Lines for hosts that were not requested are ignored; when a host appears
// more than once the last line wins.
func ParseWithTime(raw string, requested []string, ts time.Time, onSkip func(ParseSkip)) map[string]models.ProbeResult {
	want := make(map[string]struct{}, len(requested))
	for _, h := range requested {
		want[h] = struct{}{}
	}

	results := make(map[string]models.ProbeResult, len(requested))
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, lossMarker) {
			continue
		}

		host := hostOf(line)
		if _, ok := want[host]; !ok {
			continue
		}

		r, err := parseLine(line, host, ts)
		if err != nil {
			if onSkip != nil {
				onSkip(ParseSkip{Line: line, Err: err})
			}
			continue
		}
		results[host] = r
	}

	for _, h := range requested {
		if _, ok := results[h]; !ok {
			results[h] = models.DownResult(h, ts)
		}
	}
	return results
}

// hostOf returns the host token that precedes the " : " separator. Taking
// everything up to the marker keeps IPv6 literals intact.
func hostOf(line string) string {
	prefix := line[:strings.Index(line, lossMarker)]
	prefix = strings.TrimSpace(prefix)
	prefix = strings.TrimSuffix(prefix, ":")
	return strings.TrimSpace(prefix)
}

func parseLine(line, host string, ts time.Time) (models.ProbeResult, error) {
	rest := line[strings.Index(line, lossMarker)+len(lossMarker):]
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "=") {
		return models.ProbeResult{}, fmt.Errorf("missing '=' after %s", lossMarker)
	}
	rest = strings.TrimSpace(rest[1:])

	lossPart, statsPart, hasStats := strings.Cut(rest, ",")
	fields := strings.Split(strings.TrimSpace(lossPart), "/")
	if len(fields) != 3 {
		return models.ProbeResult{}, fmt.Errorf("expected sent/recv/loss, got %q", lossPart)
	}

	sent, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return models.ProbeResult{}, fmt.Errorf("sent: %w", err)
	}
	recv, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return models.ProbeResult{}, fmt.Errorf("received: %w", err)
	}
	loss, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(fields[2]), "%"), 64)
	if err != nil {
		return models.ProbeResult{}, fmt.Errorf("loss: %w", err)
	}
	if sent < 0 || recv < 0 || loss < 0 || loss > 100 {
		return models.ProbeResult{}, fmt.Errorf("values out of range: %d/%d/%g", sent, recv, loss)
	}

	if loss == 100.0 || recv == 0 {
		r := models.DownResult(host, ts)
		r.PacketsSent = sent
		return r, nil
	}

	if !hasStats {
		return models.ProbeResult{}, fmt.Errorf("host answered but %s is missing", statsMarker)
	}
	minMS, avgMS, maxMS, err := parseStats(statsPart)
	if err != nil {
		return models.ProbeResult{}, err
	}

	return models.ProbeResult{
		Timestamp:       ts,
		Host:            host,
		Status:          models.StatusUp,
		MinMS:           &minMS,
		AvgMS:           &avgMS,
		MaxMS:           &maxMS,
		PacketLossPct:   loss,
		PacketsSent:     sent,
		PacketsReceived: recv,
	}, nil
}

func parseStats(s string) (float64, float64, float64, error) {
	idx := strings.Index(s, statsMarker)
	if idx < 0 {
		return 0, 0, 0, fmt.Errorf("%s not found in %q", statsMarker, s)
	}
	s = strings.TrimSpace(s[idx+len(statsMarker):])
	s = strings.TrimSpace(strings.TrimPrefix(s, "="))

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected min/avg/max, got %q", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("latency: %w", err)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
