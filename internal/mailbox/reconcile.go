package mailbox

import "github.com/modernmail/mmail/internal/model"

// listOp selects how a single-item server response is reconciled into the
// current folder listing.
type listOp int

const (
	// opRemove drops the mail with the given id from the list.
	opRemove listOp = iota

	// opUpsert replaces the mail with the given id, or prepends the new
	// record when the id is not present.
	opUpsert

	// opReplace replaces the mail with the given id in place; absent ids
	// are left alone.
	opReplace
)

// applyMutation reconciles one server mutation into an existing listing
// without refetching. Order is server-determined; upserts prepend because
// listings are newest-first. The input slice is never modified.
func applyMutation(mails []model.Mail, id string, op listOp, with *model.Mail) []model.Mail {
	switch op {
	case opRemove:
		next := make([]model.Mail, 0, len(mails))
		for _, m := range mails {
			if m.ID != id {
				next = append(next, m)
			}
		}
		return next

	case opUpsert, opReplace:
		for i, m := range mails {
			if m.ID == id {
				next := make([]model.Mail, len(mails))
				copy(next, mails)
				next[i] = *with
				return next
			}
		}
		if op == opReplace {
			return mails
		}
		next := make([]model.Mail, 0, len(mails)+1)
		next = append(next, *with)
		next = append(next, mails...)
		return next

	default:
		return mails
	}
}
