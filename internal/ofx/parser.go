// Package ofx imports bank account statements from OFX/QFX files into
// domain transactions, which then feed classification and reconciliation.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files:
	// opening tags at end of line with no closing bracket.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX bank statement and returns transactions
// with signed integer-yen amounts. Credit card statements are ignored:
// card billing data enters the system as issuer summaries, not raw OFX.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	statements := 0
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		accountID := string(stmt.BankAcctFrom.AcctID)
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, p.convertTransaction(ofxTx, accountID))
		}
	}

	slog.Info("Parsed OFX file",
		"statements", statements,
		"transactions", len(transactions))
	return transactions, nil
}

// convertTransaction maps one OFX transaction to the domain model,
// keeping the OFX sign convention (negative = debit).
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) model.Transaction {
	txn := model.Transaction{
		ID:           string(ofxTx.FiTID),
		Date:         ofxTx.DtPosted.Time,
		AccountID:    accountID,
		Description:  p.extractDescription(ofxTx),
		Amount:       toMinorUnits(&ofxTx.TrnAmt.Rat),
		MainCategory: inferMainCategory(ofxTx),
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

// toMinorUnits rounds an OFX amount to whole yen.
func toMinorUnits(amount *big.Rat) int64 {
	f, _ := amount.Float64()
	if f < 0 {
		return int64(f - 0.5)
	}
	return int64(f + 0.5)
}

// inferMainCategory assigns the coarse category from the OFX transaction
// type and sign. Classification refines within the category later; the
// user can recategorize transfers the bank reports as plain debits.
func inferMainCategory(ofxTx ofxgo.Transaction) model.CategoryType {
	switch fmt.Sprintf("%v", ofxTx.TrnType) {
	case "INT", "DIV":
		return model.CategoryTypeIncome
	case "XFER":
		return model.CategoryTypeTransfer
	case "REPEATPMT":
		return model.CategoryTypeRepayment
	}

	f, _ := ofxTx.TrnAmt.Float64()
	if f >= 0 {
		return model.CategoryTypeIncome
	}
	return model.CategoryTypeExpense
}

// extractDescription picks the most informative statement text.
func (p *Parser) extractDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	memo := strings.TrimSpace(string(tx.Memo))
	if memo != "" && isGenericDescription(name) {
		return memo
	}
	if name == "" {
		return memo
	}
	return name
}

// isGenericDescription reports whether the NAME field carries no real
// merchant information.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "WITHDRAWAL", "DEPOSIT", "POS", "CHECK", "ATM":
		return true
	}
	return false
}
