package endpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-correlator/pkg/framework"
	"github.com/scan-io-git/scanio-correlator/pkg/pathcleaner"
)

const ownerController = "/home/dev/petclinic/src/main/java/org/petclinic/web/OwnerController.java"

func springDecl(url string, methods []string, start, end int) Declaration {
	return Declaration{
		Framework:  "SPRING_MVC",
		File:       ownerController,
		URL:        url,
		Methods:    methods,
		Parameters: []string{"lastName", "ownerId"},
		StartLine:  start,
		EndLine:    end,
	}
}

func TestSpringEndpointNormalisation(t *testing.T) {
	cleaner := pathcleaner.NewSpring("/home/dev/petclinic", "/petclinic")
	e := NewSpringEndpoint(springDecl("/owners/{ownerId}/edit", []string{"RequestMethod.POST", "get"}, 80, 95), cleaner)

	assert.Equal(t, framework.SpringMVC, e.Framework())
	assert.Equal(t, ownerController, e.RawFilePath())
	assert.Equal(t, "/src/main/java/org/petclinic/web/OwnerController.java", e.FilePath())
	assert.Equal(t, "/owners/{ownerId}/edit", e.RawURLPath())
	assert.Equal(t, "/owners/{id}/edit", e.URLPath())
	assert.Equal(t, []string{"GET", "POST"}, e.HTTPMethods())
	assert.Equal(t, []string{"lastName", "ownerId"}, e.Parameters())
	assert.Equal(t, 80, e.StartLine())
	assert.Equal(t, 95, e.EndLine())
	assert.Contains(t, e.String(), "/owners/{id}/edit")
}

func TestMatchesLineNumberIsExclusive(t *testing.T) {
	e := NewSpringEndpoint(springDecl("/owners", nil, 10, 20), nil)

	assert.False(t, e.MatchesLineNumber(10))
	assert.False(t, e.MatchesLineNumber(20))
	assert.False(t, e.MatchesLineNumber(9))
	assert.False(t, e.MatchesLineNumber(21))
	for line := 11; line < 20; line++ {
		assert.True(t, e.MatchesLineNumber(line), "line %d", line)
	}
}

func TestMatchesMethod(t *testing.T) {
	e := NewSpringEndpoint(springDecl("/owners", []string{"RequestMethod.GET"}, 1, 5), nil)
	assert.True(t, e.MatchesMethod("GET"))
	assert.True(t, e.MatchesMethod("get"))
	assert.False(t, e.MatchesMethod("POST"))
	assert.False(t, e.MatchesMethod(""))

	undeclared := NewSpringEndpoint(springDecl("/owners", nil, 1, 5), nil)
	assert.True(t, undeclared.MatchesMethod("GET"))
	assert.False(t, undeclared.MatchesMethod("POST"))
}

func TestGenerateEndpoints(t *testing.T) {
	e := NewSpringEndpoint(springDecl("/owners/{ownerId}", []string{"POST", "RequestMethod.DELETE", "GET"}, 1, 5), nil)

	generated := e.GenerateEndpoints()
	require.Len(t, generated, 3)
	assert.Equal(t, "DELETE", generated[0].Method)
	assert.Equal(t, "GET", generated[1].Method)
	assert.Equal(t, "POST", generated[2].Method)
	for _, g := range generated {
		assert.Equal(t, "/owners/{id}", g.URL)
		assert.Equal(t, []string{"lastName", "ownerId"}, g.Parameters)
	}

	defaults := NewSpringEndpoint(springDecl("/owners", nil, 1, 5), nil).GenerateEndpoints()
	assert.Equal(t, []Generated{{Method: "GET", URL: "/owners", Parameters: []string{"lastName", "ownerId"}}}, defaults)
}

func TestEndpointAccessorsReturnCopies(t *testing.T) {
	e := NewSpringEndpoint(springDecl("/owners", []string{"GET"}, 1, 5), nil)

	e.HTTPMethods()[0] = "PATCH"
	e.Parameters()[0] = "changed"

	assert.Equal(t, []string{"GET"}, e.HTTPMethods())
	assert.Equal(t, []string{"lastName", "ownerId"}, e.Parameters())
}

func TestJSPEndpointInfersURL(t *testing.T) {
	cleaner := pathcleaner.NewJSP("/home/dev/shop", "", "/WebContent")
	e := NewJSPEndpoint(Declaration{
		File:       "/home/dev/shop/WebContent/account/login.jsp",
		Parameters: []string{"username"},
		StartLine:  0,
		EndLine:    120,
	}, cleaner)

	assert.Equal(t, framework.JSP, e.Framework())
	assert.Equal(t, "/WebContent/account/login.jsp", e.FilePath())
	assert.Equal(t, "/account/login.jsp", e.URLPath())
	assert.True(t, e.MatchesLineNumber(42))

	explicit := NewJSPEndpoint(Declaration{File: "/home/dev/shop/WebContent/a.jsp", URL: "/a"}, cleaner)
	assert.Equal(t, "/a", explicit.URLPath())
}

func TestJSPEndpointFromPartialMappings(t *testing.T) {
	cleaner := pathcleaner.New(framework.JSP, []pathcleaner.PartialMapping{
		{StaticPath: "/src/main/webapp/WEB-INF/jsp/owners/findOwners.jsp", DynamicPath: "/petclinic/owners/findOwners.jsp"},
		{StaticPath: "/src/main/webapp/WEB-INF/jsp/vets/vetList.jsp", DynamicPath: "/petclinic/vets/vetList.jsp"},
		{StaticPath: "/src/main/java/org/petclinic/web/OwnerController.java"},
	})
	page := NewJSPEndpoint(Declaration{File: "/src/main/webapp/WEB-INF/jsp/owners/findOwners.jsp", EndLine: 80}, cleaner)

	assert.Equal(t, "/webapp/WEB-INF/jsp/owners/findOwners.jsp", page.FilePath())
	assert.Equal(t, "/owners/findOwners.jsp", page.URLPath())

	m := NewMatcher([]Endpoint{page}, cleaner, nil, nil)
	found, ok := m.FindEndpoint(NewQueryBuilder().WithDynamicPath("/petclinic/owners/findOwners.jsp").WithHTTPMethod("GET").Build())
	require.True(t, ok)
	assert.Same(t, page, found)

	found, ok = m.FindEndpoint(NewQueryBuilder().WithStaticPath("/src/main/webapp/WEB-INF/jsp/owners/findOwners.jsp").WithLineNumber(12).Build())
	require.True(t, ok)
	assert.Same(t, page, found)
}

func TestNewSelectsVariant(t *testing.T) {
	spring, err := New(Declaration{Framework: "SPRING_MVC", File: "A.java", URL: "/a"}, framework.None, nil)
	require.NoError(t, err)
	assert.IsType(t, &SpringEndpoint{}, spring)

	jsp, err := New(Declaration{File: "a.jsp"}, framework.JSP, nil)
	require.NoError(t, err)
	assert.IsType(t, &JSPEndpoint{}, jsp)

	_, err = New(Declaration{File: "a.rb"}, framework.None, nil)
	assert.Error(t, err)
}

func TestFromDeclarationsSkipsUnsupported(t *testing.T) {
	decls := []Declaration{
		{Framework: "SPRING_MVC", File: "A.java", URL: "/a"},
		{Framework: "NONE", File: "b.rb", URL: "/b"},
		{File: "c.jsp"},
	}
	endpoints := FromDeclarations(decls, framework.JSP, nil, nil)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "/a", endpoints[0].URLPath())
	assert.Equal(t, "/c.jsp", endpoints[1].URLPath())
}

func TestSort(t *testing.T) {
	endpoints := []Endpoint{
		NewSpringEndpoint(Declaration{File: "B.java", StartLine: 5}, nil),
		NewSpringEndpoint(Declaration{File: "A.java", StartLine: 30}, nil),
		NewSpringEndpoint(Declaration{File: "A.java", StartLine: 10}, nil),
	}
	Sort(endpoints)

	assert.Equal(t, "A.java", endpoints[0].RawFilePath())
	assert.Equal(t, 10, endpoints[0].StartLine())
	assert.Equal(t, 30, endpoints[1].StartLine())
	assert.Equal(t, "B.java", endpoints[2].RawFilePath())
}

func TestLoadDeclarations(t *testing.T) {
	dir := t.TempDir()

	listFile := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(listFile, []byte(`
- framework: SPRING_MVC
  file: src/main/java/OwnerController.java
  url: /owners/{ownerId}
  methods: [RequestMethod.GET]
  parameters: [ownerId]
  start_line: 10
  end_line: 20
`), 0o644))

	decls, err := LoadDeclarations(listFile)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "/owners/{ownerId}", decls[0].URL)
	assert.Equal(t, []string{"RequestMethod.GET"}, decls[0].Methods)
	assert.Equal(t, 20, decls[0].EndLine)

	docFile := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(docFile, []byte(`{"endpoints": [{"file": "a.jsp", "start_line": 1, "end_line": 9}]}`), 0o644))

	decls, err = LoadDeclarations(docFile)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "a.jsp", decls[0].File)

	_, err = LoadDeclarations(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
