package ofx

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250131120000
<LANGUAGE>JPN
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>JPY
<BANKACCTFROM>
<BANKID>0001
<BRANCHID>001
<ACCTID>1234567
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20250101
<DTEND>20250131
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250115
<TRNAMT>-1500
<FITID>txn-001
<NAME>スターバックス
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20250120
<TRNAMT>25
<FITID>txn-002
<NAME>利息
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250127
<TRNAMT>-125000
<FITID>txn-003
<NAME>DEBIT
<MEMO>ミズイロカード 引落
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>100000
<DTASOF>20250131
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseFile(t *testing.T) {
	p := NewParser()
	txns, err := p.ParseFile(context.Background(), strings.NewReader(sampleOFX))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	coffee := txns[0]
	assert.Equal(t, "txn-001", coffee.ID)
	assert.Equal(t, "1234567", coffee.AccountID)
	assert.Equal(t, int64(-1_500), coffee.Amount)
	assert.Equal(t, "スターバックス", coffee.Description)
	assert.Equal(t, model.CategoryTypeExpense, coffee.MainCategory)
	assert.NotEmpty(t, coffee.Hash)

	// INT maps to income regardless of sign heuristics.
	interest := txns[1]
	assert.Equal(t, model.CategoryTypeIncome, interest.MainCategory)
	assert.Equal(t, int64(25), interest.Amount)

	// A generic NAME yields to the MEMO text.
	card := txns[2]
	assert.Equal(t, "ミズイロカード 引落", card.Description)
	assert.Equal(t, int64(-125_000), card.Amount)
}

func TestParseFile_GarbageInput(t *testing.T) {
	p := NewParser()
	_, err := p.ParseFile(context.Background(), strings.NewReader("not an ofx file"))
	assert.Error(t, err)
}

func TestPreprocessOFX(t *testing.T) {
	p := NewParser()

	fixed := p.preprocessOFX("<SEVERITY>Info</SEVERITY>")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>", fixed)

	// SGML files from some banks drop the closing bracket on bare tags.
	fixed = p.preprocessOFX("<OFX\n<BANKMSGSRSV1\n</OFX>")
	assert.Equal(t, "<OFX>\n<BANKMSGSRSV1>\n</OFX>", fixed)

	fixed = p.preprocessOFX("\n\n  OFXHEADER:100")
	assert.Equal(t, "OFXHEADER:100", fixed)
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"-1500", -1_500},
		{"1500", 1_500},
		{"-1500.4", -1_500},
		{"-1500.6", -1_501},
		{"1500.5", 1_501},
		{"0", 0},
	}
	for _, tt := range tests {
		r, ok := new(big.Rat).SetString(tt.in)
		require.True(t, ok)
		assert.Equal(t, tt.want, toMinorUnits(r), "input %s", tt.in)
	}
}
