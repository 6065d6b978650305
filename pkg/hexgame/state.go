package hexgame

import "errors"

// StateHolder is anything that keeps its own undo stack.
// SaveState pushes a snapshot, RestoreState pops the latest one and applies it.
type StateHolder interface {
	SaveState()
	RestoreState()
}

var ErrTransactionDone = errors.New("transaction already committed or rolled back")

// Transaction enforces the undo protocol: every holder mutated by an action
// is saved before the mutation, and the action is pushed exactly once with
// the holders in capture order.
type Transaction struct {
	holders []StateHolder
	done    bool
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

// Save snapshots h and records it as affected.
func (tx *Transaction) Save(h StateHolder) {
	h.SaveState()
	tx.holders = append(tx.holders, h)
}

// Adopt records h whose snapshot the caller has already pushed.
func (tx *Transaction) Adopt(h StateHolder) {
	tx.holders = append(tx.holders, h)
}

// Discard restores h to its saved snapshot and stops tracking it.
func (tx *Transaction) Discard(h StateHolder) {
	if tx.forget(h) {
		h.RestoreState()
	}
}

// Forget stops tracking h without touching its stack. Used when another
// holder's snapshot will restore h.
func (tx *Transaction) Forget(h StateHolder) {
	tx.forget(h)
}

func (tx *Transaction) forget(h StateHolder) bool {
	for i, x := range tx.holders {
		if x == h {
			tx.holders = append(tx.holders[:i], tx.holders[i+1:]...)
			return true
		}
	}
	return false
}

// Affected returns the recorded holders in capture order.
func (tx *Transaction) Affected() []StateHolder {
	return append([]StateHolder(nil), tx.holders...)
}

// Commit pushes a onto history with the recorded holders attached.
func (tx *Transaction) Commit(history *ActionHistory, a Action) error {
	if tx.done {
		return ErrTransactionDone
	}
	tx.done = true
	a.affected = tx.holders
	history.Push(a)
	return nil
}

// Rollback restores every recorded holder, newest first.
func (tx *Transaction) Rollback() error {
	if tx.done {
		return ErrTransactionDone
	}
	tx.done = true
	for i := len(tx.holders) - 1; i >= 0; i-- {
		tx.holders[i].RestoreState()
	}
	tx.holders = nil
	return nil
}
