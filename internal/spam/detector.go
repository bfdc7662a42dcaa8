package spam

import (
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Violation reasons returned by the detector.
const (
	ReasonRepetitiveContent   = "REPETITIVE_CONTENT"
	ReasonMessageFlood        = "MESSAGE_FLOOD"
	ReasonSimilarityViolation = "SIMILARITY_VIOLATION"
)

// MuteDuration is how long an offender stays blocked after a positive verdict.
const MuteDuration = 5 * time.Minute

const (
	repeatWindow = 10 * time.Second
	floodWindow  = 5 * time.Second

	// Thresholds count prior history entries, not the candidate. Three
	// identical prior messages means the candidate is the fourth; ten
	// prior messages in five seconds means the candidate is the eleventh.
	repeatThreshold = 3
	floodThreshold  = 10

	similarityThreshold = 0.95
)

// Verdict is the detector's output.
type Verdict struct {
	Spam   bool
	Reason string
}

// Detector classifies a candidate message against the sender's recent
// history. It is pure: it never touches the history store or the blocklist.
type Detector struct {
	similarity *metrics.SorensenDice
	now        func() time.Time
}

// NewDetector builds a Detector. A nil clock defaults to time.Now.
func NewDetector(now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	sim := metrics.NewSorensenDice()
	sim.CaseSensitive = false
	return &Detector{similarity: sim, now: now}
}

// Detect runs the ordered checks and returns the first positive verdict.
// History must be most-recent-first and must not include the candidate.
func (d *Detector) Detect(content string, history []Entry) Verdict {
	if len(history) == 0 {
		return Verdict{}
	}

	now := d.now()
	repeatCutoff := now.Add(-repeatWindow)
	floodCutoff := now.Add(-floodWindow)
	normalized := normalize(content)

	same := 0
	for _, entry := range history {
		if entry.Timestamp.After(repeatCutoff) && normalize(entry.Content) == normalized {
			same++
		}
	}
	if same >= repeatThreshold {
		return Verdict{Spam: true, Reason: ReasonRepetitiveContent}
	}

	recent := 0
	for _, entry := range history {
		if entry.Timestamp.After(floodCutoff) {
			recent++
		}
	}
	if recent >= floodThreshold {
		return Verdict{Spam: true, Reason: ReasonMessageFlood}
	}

	for _, entry := range history {
		if !entry.Timestamp.After(repeatCutoff) {
			continue
		}
		// Exact repeats are the repetitive-content rule's business; this
		// rule only catches near-duplicates below that rule's threshold.
		if normalize(entry.Content) == normalized {
			continue
		}
		if strutil.Similarity(content, entry.Content, d.similarity) >= similarityThreshold {
			return Verdict{Spam: true, Reason: ReasonSimilarityViolation}
		}
	}

	return Verdict{}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
