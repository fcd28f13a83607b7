package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-correlator/internal/project"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
)

func TestValidateResolveArgs(t *testing.T) {
	withRoot := config.Correlation{ProjectRoot: "/home/dev/petclinic"}

	tests := []struct {
		name        string
		options     RunOptionsResolve
		correlation config.Correlation
		args        []string
		wantErr     string
	}{
		{name: "missing project root", wantErr: "missing required flags: project-root"},
		{name: "empty hint", correlation: withRoot, args: []string{" "}, wantErr: "file hints cannot be empty"},
		{name: "wildcard only pattern", options: RunOptionsResolve{Pattern: "*"}, correlation: withRoot, wantErr: `'pattern' must contain more than wildcards: "*"`},
		{name: "valid", options: RunOptionsResolve{Pattern: "*.jsp"}, correlation: withRoot, args: []string{"OwnerController.java"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResolveArgs(&tt.options, tt.correlation, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestResolveFiles(t *testing.T) {
	logger = hclog.NewNullLogger()

	root := t.TempDir()
	for _, path := range []string{
		"src/main/webapp/WEB-INF/web.xml",
		"src/main/webapp/WEB-INF/jsp/owners/findOwners.jsp",
		"src/main/java/org/petclinic/web/OwnerController.java",
	} {
		abs := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, nil, 0o644))
	}

	p, err := project.Load(project.Options{Correlation: config.Correlation{Framework: "JSP", ProjectRoot: root}}, nil)
	require.NoError(t, err)

	result := resolveFiles(p, []string{"web/OwnerController.java", "Missing.java"}, "*.jsp")
	assert.Equal(t, "JSP", result.Framework)
	assert.Equal(t, 3, result.IndexedFiles)
	assert.Equal(t, filepath.Join(root, "src/main/webapp/WEB-INF/web.xml"), result.WebXML)

	require.Len(t, result.Files, 2)
	assert.True(t, result.Files[0].Found)
	assert.Equal(t, filepath.Join(root, "src/main/java/org/petclinic/web/OwnerController.java"), result.Files[0].Path)
	assert.Equal(t, "/src/main/java/org/petclinic/web/OwnerController.java", result.Files[0].Canonical)
	assert.False(t, result.Files[1].Found)

	assert.Equal(t, []string{filepath.Join(root, "src/main/webapp/WEB-INF/jsp/owners/findOwners.jsp")}, result.Matches)
}
