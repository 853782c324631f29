package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settled-dev/settled/internal/model"
)

func TestAccountsRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Code: "1010", Name: "Business Cheque Account", Type: model.AccountTypeAsset, Description: "Primary account", Balance: dec("1250.75")},
		{ID: 5040, Code: "5040", Name: "Professional Services", Type: model.AccountTypeExpense, ParentID: 5000, TaxLine: "bas_g11"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))
	assert.True(t, strings.HasPrefix(buf.String(), "account_id,"))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1010, got[0].ID)
	assert.Equal(t, "1010", got[0].Code)
	assert.True(t, got[0].Balance.Equal(dec("1250.75")))
	assert.Equal(t, 5000, got[1].ParentID)
	assert.Equal(t, "bas_g11", got[1].TaxLine)
	assert.True(t, got[1].Balance.IsZero())
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	// Wrong field count.
	_, err := UnmarshalAccount([]string{"1010", "Bank"})
	require.Error(t, err)

	// Bad account id.
	_, err = UnmarshalAccount([]string{"x", "1010", "Bank", "asset", "", "", "", "0.00"})
	require.Error(t, err)

	// Bad balance.
	_, err = UnmarshalAccount([]string{"1010", "1010", "Bank", "asset", "", "", "", "abc"})
	require.Error(t, err)
}
