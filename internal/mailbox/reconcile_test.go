package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modernmail/mmail/internal/model"
)

func listing(ids ...string) []model.Mail {
	mails := make([]model.Mail, 0, len(ids))
	for _, id := range ids {
		mails = append(mails, model.Mail{ID: id, Subject: "subject " + id})
	}
	return mails
}

func idsOf(mails []model.Mail) []string {
	ids := make([]string, 0, len(mails))
	for _, m := range mails {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestApplyMutationRemove(t *testing.T) {
	mails := listing("a", "b", "c")

	got := applyMutation(mails, "b", opRemove, nil)

	assert.Equal(t, []string{"a", "c"}, idsOf(got))
}

func TestApplyMutationRemoveAbsentID(t *testing.T) {
	mails := listing("a", "b")

	got := applyMutation(mails, "zzz", opRemove, nil)

	assert.Equal(t, []string{"a", "b"}, idsOf(got))
}

func TestApplyMutationUpsertReplacesInPlace(t *testing.T) {
	mails := listing("a", "b", "c")
	updated := model.Mail{ID: "b", Subject: "updated"}

	got := applyMutation(mails, "b", opUpsert, &updated)

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(got))
	assert.Equal(t, "updated", got[1].Subject)
}

func TestApplyMutationUpsertPrependsNewRecord(t *testing.T) {
	mails := listing("a", "b")
	fresh := model.Mail{ID: "new", Subject: "fresh"}

	got := applyMutation(mails, "new", opUpsert, &fresh)

	assert.Equal(t, []string{"new", "a", "b"}, idsOf(got))
}

func TestApplyMutationReplaceLeavesAbsentAlone(t *testing.T) {
	mails := listing("a", "b")
	fresh := model.Mail{ID: "new", Subject: "fresh"}

	got := applyMutation(mails, "new", opReplace, &fresh)

	assert.Equal(t, []string{"a", "b"}, idsOf(got))
}

func TestApplyMutationDoesNotModifyInput(t *testing.T) {
	mails := listing("a", "b", "c")
	updated := model.Mail{ID: "b", Subject: "updated"}

	_ = applyMutation(mails, "b", opUpsert, &updated)
	_ = applyMutation(mails, "a", opRemove, nil)

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(mails))
	assert.Equal(t, "subject b", mails[1].Subject)
}
