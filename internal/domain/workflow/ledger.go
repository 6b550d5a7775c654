package workflow

import (
	"fmt"
	"sync"
	"time"
)

// StampTimeFormat is the display format for send timestamps.
const StampTimeFormat = "02/01/2006 15:04"

// VersionStamp identifies one sent version of an artifact lineage. Code is
// minted once per lineage and stable across re-edits; Version starts at 1 and
// increments by exactly 1 on each send of a re-edited draft.
type VersionStamp struct {
	Code    string `json:"code"`
	Version int    `json:"version"`
	SentAt  string `json:"sent_at"`
}

// Ledger mints lineage codes and computes version stamps. Codes use a
// per-kind monotonic counter starting at 100, rendered as a zero-padded
// suffix of at least three digits (it widens past 999 rather than wrap), so
// two lineages can never share a code within a session.
type Ledger struct {
	mu   sync.Mutex
	next map[Kind]int
	now  func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{next: make(map[Kind]int), now: time.Now}
}

// NextStamp computes the stamp for a send action. With no prior stamp a new
// lineage code is minted at version 1. With a prior stamp, the version bumps
// only when the draft was re-opened for editing after a send; otherwise the
// prior code and version are kept unchanged.
func (l *Ledger) NextStamp(kind Kind, existing *VersionStamp, editingAfterSend bool) VersionStamp {
	l.mu.Lock()
	sentAt := l.now().Format(StampTimeFormat)
	if existing == nil {
		n := l.next[kind]
		l.next[kind] = n + 1
		l.mu.Unlock()
		return VersionStamp{
			Code:    fmt.Sprintf("%s%03d", kind.CodePrefix(), 100+n),
			Version: 1,
			SentAt:  sentAt,
		}
	}
	l.mu.Unlock()

	version := existing.Version
	if editingAfterSend {
		version++
	}
	return VersionStamp{Code: existing.Code, Version: version, SentAt: sentAt}
}
