package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselhub/pkg/errors"
)

func fullInput() MatchRequestInput {
	return MatchRequestInput{
		FirstName:        "Ada",
		LastName:         "Byron",
		Email:            "ada@example.com",
		Phone:            "+1 555 0100",
		OpposingParty:    "Babbage Ltd",
		OpposingLawFirm:  "Difference & Partners",
		Category:         "contract",
		Timeline:         "1-3 months",
		Budget:           "5k-10k",
		Location:         "London",
		Summary:          "Dispute over unpaid engine work",
		PreferredContact: "email",
	}
}

func keys(m map[string]interface{}) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func TestPartitionKeySets(t *testing.T) {
	inputs := map[string]MatchRequestInput{
		"full": fullInput(),
		"no conflict data": func() MatchRequestInput {
			in := fullInput()
			in.OpposingParty, in.OpposingLawFirm = "", ""
			return in
		}(),
		"minimal": {FirstName: "A", LastName: "B", Email: "a@b.c", Phone: "1", Category: "family", Summary: "s"},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			p, err := PartitionMatchRequest(in, "owner-1")
			require.NoError(t, err)

			contact := keys(p.Contact.Fields())
			conflict := keys(p.Conflict.Fields())
			caseTier := keys(p.Case.Fields())

			union := map[string]bool{}
			for _, set := range []map[string]bool{contact, conflict, caseTier} {
				for k := range set {
					union[k] = true
				}
			}
			want := keys(in.Fields())
			want[OwnerField] = true
			assert.Equal(t, want, union)

			for k := range conflict {
				assert.False(t, contact[k], "conflict key %q leaked into contact tier", k)
				assert.False(t, caseTier[k], "conflict key %q leaked into case tier", k)
			}
			for k := range contact {
				if k != OwnerField {
					assert.False(t, caseTier[k], "contact key %q duplicated in case tier", k)
				}
			}
			assert.NotContains(t, caseTier, "email")
			assert.NotContains(t, caseTier, "phone")
			assert.NotContains(t, conflict, OwnerField)
			assert.Equal(t, "owner-1", p.Contact.UserID)
			assert.Equal(t, "owner-1", p.Case.UserID)
		})
	}
}

func TestPartitionRequiresOwner(t *testing.T) {
	for _, owner := range []string{"", "   "} {
		_, err := PartitionMatchRequest(fullInput(), owner)
		assert.True(t, errors.Is(err, errors.CodePrecondition))
	}
}

func TestPartitionIsDeterministic(t *testing.T) {
	a, err := PartitionMatchRequest(fullInput(), "u")
	require.NoError(t, err)
	b, err := PartitionMatchRequest(fullInput(), "u")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReassembleRoundTrip(t *testing.T) {
	in := fullInput()
	p, err := PartitionMatchRequest(in, "owner-9")
	require.NoError(t, err)

	got, owner := Reassemble(p)
	assert.Equal(t, in, got)
	assert.Equal(t, "owner-9", owner)
}
