package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoFullName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    Repo
		wantErr bool
	}{
		"owner and name": {input: "octo/widgets", want: Repo{Owner: "octo", Name: "widgets"}},
		"surrounding ws": {input: " octo/widgets\n", want: Repo{Owner: "octo", Name: "widgets"}},
		"no slash":       {input: "widgets", wantErr: true},
		"empty owner":    {input: "/widgets", wantErr: true},
		"too many parts": {input: "a/b/c", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRepoFullName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Owner+"/"+tt.want.Name, got.FullName())
		})
	}
}

func TestRepoFromRemoteURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		url     string
		want    Repo
		wantErr bool
	}{
		"scp style":        {url: "git@github.com:octo/widgets.git", want: Repo{Owner: "octo", Name: "widgets"}},
		"scp without .git": {url: "git@github.com:octo/widgets", want: Repo{Owner: "octo", Name: "widgets"}},
		"https":            {url: "https://github.com/octo/widgets.git", want: Repo{Owner: "octo", Name: "widgets"}},
		"https no suffix":  {url: "https://github.com/octo/widgets", want: Repo{Owner: "octo", Name: "widgets"}},
		"ssh with port":    {url: "ssh://git@ghe.example.com:2222/octo/widgets.git", want: Repo{Owner: "octo", Name: "widgets"}},
		"dotted name":      {url: "https://github.com/octo/widgets.io.git", want: Repo{Owner: "octo", Name: "widgets.io"}},
		"local path":       {url: "/srv/git/widgets.git", wantErr: true},
		"empty":            {url: "", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := RepoFromRemoteURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
