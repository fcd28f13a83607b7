package match

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-correlator/internal/project"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"

	cmdutil "github.com/scan-io-git/scanio-correlator/internal/cmd"
)

const ownerController = "src/main/java/org/petclinic/web/OwnerController.java"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadPetclinic(t *testing.T) (*project.Project, string) {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/main/webapp/WEB-INF/web.xml"),
		`<servlet-class>org.springframework.web.servlet.DispatcherServlet</servlet-class>`)
	writeFile(t, filepath.Join(root, ownerController), "class OwnerController {}\n")

	inputs := t.TempDir()
	decls := filepath.Join(inputs, "endpoints.yaml")
	writeFile(t, decls, `
endpoints:
  - file: `+ownerController+`
    url: /owners
    methods: [RequestMethod.GET]
    parameters: [lastName]
    start_line: 80
    end_line: 100
  - file: `+ownerController+`
    url: /owners/{ownerId}/edit
    methods: [RequestMethod.POST]
    start_line: 100
    end_line: 120
  - file: `+ownerController+`
    url: /owners/{ownerId}/edit
    methods: [RequestMethod.GET]
    start_line: 120
    end_line: 130
`)

	p, err := project.Load(project.Options{
		Correlation:  config.Correlation{Framework: "SPRING_MVC", ProjectRoot: root, DynamicRoot: "/petclinic"},
		Declarations: []string{decls},
	}, nil)
	require.NoError(t, err)
	return p, inputs
}

func TestMatchQueryDynamic(t *testing.T) {
	p, _ := loadPetclinic(t)

	result, err := matchQuery(p, &RunOptionsMatch{URL: "/petclinic/owners/42/edit", Method: "POST"}, cmdutil.ModeDynamic)
	require.NoError(t, err)
	assert.Equal(t, "SPRING_MVC", result.Framework)
	require.Len(t, result.Endpoints, 1)
	assert.Equal(t, 100, result.Endpoints[0].StartLine)

	result, err = matchQuery(p, &RunOptionsMatch{URL: "/petclinic/vets"}, cmdutil.ModeDynamic)
	require.NoError(t, err)
	assert.Empty(t, result.Endpoints)
	assert.NotNil(t, result.Endpoints)

	result, err = matchQuery(p, &RunOptionsMatch{URL: "/petclinic/owners/42/edit", All: true}, cmdutil.ModeDynamic)
	require.NoError(t, err)
	assert.Len(t, result.Endpoints, 2)
}

func TestMatchQueryStatic(t *testing.T) {
	p, inputs := loadPetclinic(t)

	result, err := matchQuery(p, &RunOptionsMatch{File: ownerController, Line: 125}, cmdutil.ModeStatic)
	require.NoError(t, err)
	require.Len(t, result.Endpoints, 1)
	assert.Equal(t, "/owners/{id}/edit", result.Endpoints[0].URL)
	assert.Empty(t, result.Parameter)

	trace := filepath.Join(inputs, "trace.yaml")
	writeFile(t, trace, `
code_points:
  - file: `+ownerController+`
    line: 85
    text: "public String processFindForm(Owner owner, BindingResult result, Model model) {"
  - file: `+ownerController+`
    line: 90
    text: "Collection<Owner> results = this.clinicService.findOwnerByLastName(owner.getLastName());"
`)
	result, err = matchQuery(p, &RunOptionsMatch{Trace: trace}, cmdutil.ModeStatic)
	require.NoError(t, err)
	assert.Equal(t, "owner.lastName", result.Parameter)
	require.Len(t, result.Endpoints, 1)
	assert.Equal(t, "/owners", result.Endpoints[0].URL)

	result, err = matchQuery(p, &RunOptionsMatch{Trace: trace, Parameter: "q"}, cmdutil.ModeStatic)
	require.NoError(t, err)
	assert.Equal(t, "q", result.Parameter)

	_, err = matchQuery(p, &RunOptionsMatch{Trace: filepath.Join(inputs, "missing.yaml")}, cmdutil.ModeStatic)
	assert.Error(t, err)
}

func TestValidateMatchArgs(t *testing.T) {
	decls := []string{"endpoints.yaml"}

	tests := []struct {
		name    string
		options RunOptionsMatch
		args    []string
		mode    string
		wantErr string
	}{
		{
			name:    "nothing given",
			mode:    cmdutil.ModeDynamic,
			wantErr: "missing required flags: declarations, url",
		},
		{
			name:    "positional arguments",
			options: RunOptionsMatch{Declarations: decls, URL: "/owners"},
			args:    []string{"extra"},
			mode:    cmdutil.ModeDynamic,
			wantErr: "unexpected positional arguments: extra",
		},
		{
			name:    "file without line",
			options: RunOptionsMatch{Declarations: decls, File: "OwnerController.java"},
			mode:    cmdutil.ModeStatic,
			wantErr: "missing required flags: line",
		},
		{
			name:    "static and dynamic mixed",
			options: RunOptionsMatch{Declarations: decls, Trace: "trace.yaml", URL: "/owners"},
			mode:    cmdutil.ModeStatic,
			wantErr: "'url' and 'method' cannot be combined with 'file' or 'trace'",
		},
		{
			name:    "line without file",
			options: RunOptionsMatch{Declarations: decls, URL: "/owners", Line: 3},
			mode:    cmdutil.ModeDynamic,
			wantErr: "'line' requires 'file'",
		},
		{
			name:    "unknown mode",
			options: RunOptionsMatch{Declarations: decls},
			mode:    "batch",
			wantErr: `invalid match mode: "batch"`,
		},
		{name: "valid dynamic", options: RunOptionsMatch{Declarations: decls, URL: "/owners", Method: "GET"}, mode: cmdutil.ModeDynamic},
		{name: "valid static", options: RunOptionsMatch{Declarations: decls, File: "OwnerController.java", Line: 12}, mode: cmdutil.ModeStatic},
		{name: "valid trace", options: RunOptionsMatch{Declarations: decls, Trace: "trace.yaml"}, mode: cmdutil.ModeStatic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMatchArgs(&tt.options, tt.args, tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
