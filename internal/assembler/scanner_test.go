// Completion: 100% - Scanner tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestScanner(text string) *Scanner {
	buf := NewBuffer("t.s", []byte(text))
	return NewScanner(buf, 0, NewDiagnostics(false))
}

func TestParseIdentifier(t *testing.T) {
	s := newTestScanner("main_1 + 2")
	name, res := s.ParseIdentifier()
	require.Equal(t, Found, res)
	require.Equal(t, "main_1", name.String())
}

func TestParseDirective(t *testing.T) {
	s := newTestScanner(".global foo")
	name, res := s.ParseDirective()
	require.Equal(t, Found, res)
	require.Equal(t, "global", name.String())
}

func TestParseDirective_NotFoundLeavesCursor(t *testing.T) {
	s := newTestScanner("add r1, r2, r3")
	mark := s.Cursor().Mark()
	_, res := s.ParseDirective()
	require.Equal(t, NotFound, res)
	require.Equal(t, mark, s.Cursor().Mark())
}

func TestParseRegister_NumericAndAliases(t *testing.T) {
	cases := map[string]int{"r0": 0, "r31": 31, "sp": 31, "bp": 30, "ra": 29}
	for text, want := range cases {
		s := newTestScanner(text)
		got, res := s.ParseRegister()
		require.Equal(t, Found, res, text)
		require.Equal(t, want, got, text)
	}
}

func TestParseRegister_OutOfRangeIsError(t *testing.T) {
	s := newTestScanner("r32")
	_, res := s.ParseRegister()
	require.Equal(t, ErrorAt, res)
}

func TestParseRegister_TrailingIdentCharDisqualifies(t *testing.T) {
	s := newTestScanner("r0a")
	_, res := s.ParseRegister()
	require.Equal(t, NotFound, res)
}

func TestParseControlRegister_FirstEpcOccurrenceAuthoritative(t *testing.T) {
	s := newTestScanner("epc")
	got, res := s.ParseControlRegister()
	require.Equal(t, Found, res)
	require.Equal(t, crAliases["epc"], got)
}

func TestParseLiteral_Bases(t *testing.T) {
	cases := map[string]int64{
		"0": 0, "42": 42, "-7": -7,
		"0x1F": 0x1F, "0b101": 5, "0o17": 15,
	}
	for text, want := range cases {
		s := newTestScanner(text)
		got, res := s.ParseLiteral()
		require.Equal(t, Found, res, text)
		require.Equal(t, want, got, text)
	}
}

func TestParseLiteral_LeadingZeroDecimalIsError(t *testing.T) {
	s := newTestScanner("0123")
	_, res := s.ParseLiteral()
	require.Equal(t, ErrorAt, res)
}

func TestConsumeKeyword_WordBoundary(t *testing.T) {
	s := newTestScanner("adder")
	require.Equal(t, NotFound, s.ConsumeKeyword("add"))
}

func TestSkip_ConsumesSeparators(t *testing.T) {
	s := newTestScanner("  , ; \tfoo")
	s.Skip()
	require.Equal(t, byte('f'), s.Cursor().Peek())
}
