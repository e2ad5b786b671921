package accessor

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/splign/encoding/fasta"
	"github.com/grailbio/splign/splerr"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAccessorLoadUppercasesAndCleans(t *testing.T) {
	a := NewInMemory(map[string][]byte{
		"tx1": []byte("acgtacgtZZ"),
	})
	ctx := context.Background()

	got, err := a.Load(ctx, "tx1", 0, 3)
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(got))

	got, err = a.Load(ctx, "tx1", 8, 9)
	require.NoError(t, err)
	require.Equal(t, "NN", string(got))

	n, err := a.Len(ctx, "tx1")
	require.NoError(t, err)
	require.EqualValues(t, 10, n)
}

func TestInMemoryAccessorToEnd(t *testing.T) {
	a := NewInMemory(map[string][]byte{"tx1": []byte("ACGTACGT")})
	got, err := a.Load(context.Background(), "tx1", 4, ToEnd)
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(got))
}

func TestInMemoryAccessorUnknownSequence(t *testing.T) {
	a := NewInMemory(map[string][]byte{"tx1": []byte("ACGT")})
	_, err := a.Load(context.Background(), "tx2", 0, 1)
	require.ErrorIs(t, err, splerr.ErrSequenceNotFound)
}

func TestInMemoryAccessorInvalidRange(t *testing.T) {
	a := NewInMemory(map[string][]byte{"tx1": []byte("ACGT")})
	_, err := a.Load(context.Background(), "tx1", 2, 1)
	require.ErrorIs(t, err, splerr.ErrInvalidRange)

	_, err = a.Load(context.Background(), "tx1", 0, 10)
	require.ErrorIs(t, err, splerr.ErrInvalidRange)
}

func TestFastaAccessorLoadAndLen(t *testing.T) {
	data := ">chr1\nACGTACGTACGT\n>chr2\nTTTTAAAA\n"
	f, err := fasta.New(strings.NewReader(data), OptCleanSeq)
	require.NoError(t, err)
	a := &FastaAccessor{f: f}
	ctx := context.Background()

	got, err := a.Load(ctx, "chr1", 1, 6)
	require.NoError(t, err)
	require.Equal(t, "CGTACG", string(got))

	n, err := a.Len(ctx, "chr2")
	require.NoError(t, err)
	require.EqualValues(t, 8, n)
}

func TestFastaAccessorUnknownSequence(t *testing.T) {
	data := ">chr1\nACGT\n"
	f, err := fasta.New(strings.NewReader(data), OptCleanSeq)
	require.NoError(t, err)
	a := &FastaAccessor{f: f}

	_, err = a.Load(context.Background(), "chr9", 0, 1)
	require.ErrorIs(t, err, splerr.ErrSequenceNotFound)
}
