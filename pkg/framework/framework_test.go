package framework

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-correlator/pkg/projectdir"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		{"NONE", None},
		{"JSP", JSP},
		{"SPRING_MVC", SpringMVC},
		{"Spring MVC", SpringMVC},
		{"spring_mvc", SpringMVC},
		{"DETECT", Detect},
		{"", Detect},
		{"Rails", Detect},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Spring MVC", SpringMVC.DisplayName())
	assert.Equal(t, "None", None.DisplayName())
	assert.Equal(t, "RAILS", Type("RAILS").DisplayName())
	assert.False(t, Type("RAILS").IsValid())
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDetectType(t *testing.T) {
	t.Run("spring dispatcher servlet", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "src/main/webapp/WEB-INF/web.xml",
			"<servlet><servlet-class>org.springframework.web.servlet.DispatcherServlet</servlet-class></servlet>")
		write(t, root, "src/main/webapp/WEB-INF/jsp/welcome.jsp", "<html/>")

		assert.Equal(t, SpringMVC, DetectType(projectdir.New(root, nil), nil))
	})

	t.Run("namespaced descriptor", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "WEB-INF/web.xml", `<?xml version="1.0" encoding="UTF-8"?>
<web-app xmlns="http://java.sun.com/xml/ns/javaee" version="3.0">
  <servlet>
    <servlet-name>petclinic</servlet-name>
    <servlet-class>
      org.springframework.web.servlet.DispatcherServlet
    </servlet-class>
  </servlet>
</web-app>`)

		assert.Equal(t, SpringMVC, DetectType(projectdir.New(root, nil), nil))
	})

	t.Run("commented out dispatcher", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "WebContent/WEB-INF/web.xml",
			"<web-app><!-- <servlet-class>org.springframework.web.servlet.DispatcherServlet</servlet-class> --></web-app>")
		write(t, root, "WebContent/login.jsp", "<html/>")

		assert.Equal(t, JSP, DetectType(projectdir.New(root, nil), nil))
	})

	t.Run("malformed descriptor", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "WEB-INF/web.xml", "<servlet-class>org.springframework.web.servlet.DispatcherServlet</servlet-class><unclosed>")

		assert.Equal(t, SpringMVC, DetectType(projectdir.New(root, nil), nil))
	})

	t.Run("plain jsp application", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "WebContent/WEB-INF/web.xml", "<web-app/>")
		write(t, root, "WebContent/login.jsp", "<html/>")

		assert.Equal(t, JSP, DetectType(projectdir.New(root, nil), nil))
	})

	t.Run("nothing recognisable", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "main.go", "package main")

		assert.Equal(t, None, DetectType(projectdir.New(root, nil), nil))
		assert.Equal(t, None, DetectType(nil, nil))
	})
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	write(t, root, "index.jsp", "<html/>")
	idx := projectdir.New(root, nil)

	assert.Equal(t, SpringMVC, Resolve(SpringMVC, idx, nil))
	assert.Equal(t, JSP, Resolve(Detect, idx, nil))
}
