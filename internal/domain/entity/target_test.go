package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoTarget(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    RepoTarget
		wantErr bool
	}{
		{name: "owner and name", raw: "dotnet/runtime", want: RepoTarget{Owner: "dotnet", Name: "runtime"}},
		{name: "surrounding whitespace", raw: "  grpc/grpc-dotnet \n", want: RepoTarget{Owner: "grpc", Name: "grpc-dotnet"}},
		{name: "no separator", raw: "dotnet", wantErr: true},
		{name: "empty owner", raw: "/runtime", wantErr: true},
		{name: "empty name", raw: "dotnet/", wantErr: true},
		{name: "extra segment", raw: "dotnet/runtime/issues", wantErr: true},
		{name: "empty string", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoTarget(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedTarget))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRepoTargets_PreservesOrder(t *testing.T) {
	got, err := ParseRepoTargets([]string{"b/y", "a/x"})
	require.NoError(t, err)
	assert.Equal(t, []RepoTarget{{Owner: "b", Name: "y"}, {Owner: "a", Name: "x"}}, got)
}

func TestParseRepoTargets_StopsAtMalformed(t *testing.T) {
	_, err := ParseRepoTargets([]string{"a/x", "broken"})
	assert.ErrorIs(t, err, ErrMalformedTarget)
}

func TestRepoTarget_Derived(t *testing.T) {
	target := RepoTarget{Owner: "dotnet", Name: "aspnetcore"}

	assert.Equal(t, "dotnet/aspnetcore", target.String())
	assert.Equal(t, "https://github.com/dotnet/aspnetcore", target.URL())
	assert.Equal(t, "dotnet_aspnetcore.atom", target.FileName())
}
