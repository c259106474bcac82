package ntt

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/polyzk/cairogen/codegen"
)

func TestGoldenNtt2Bounded(t *testing.T) {
	g2, err := NewForward(2)
	require.NoError(t, err)
	code, err := g2.Generate(codegen.ModeBounded)
	require.NoError(t, err)

	goldie.New(t).Assert(t, "ntt2_bounded", []byte(code))
}

func TestGoldenNtt2Felt252Full(t *testing.T) {
	g2, err := NewForward(2)
	require.NoError(t, err)
	code, err := g2.GenerateFull(codegen.ModeFelt252)
	require.NoError(t, err)

	goldie.New(t).Assert(t, "ntt2_felt252_full", []byte(code))
}
