package xpath

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/raks/aegis/internal/domain"
)

// defaultPluginGroup is the groupId Maven assumes for plugins that omit one.
const defaultPluginGroup = "org.apache.maven.plugins"

// POMReader implements domain.POMReader.
type POMReader struct{}

func NewPOMReader() *POMReader { return &POMReader{} }

// Read extracts parent, properties, dependencies and plugins. Element names
// are matched by local name so namespaced and plain POMs read the same.
func (r *POMReader) Read(content []byte) (*domain.POM, error) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}
	pom := &domain.POM{}

	if parent := xmlquery.FindOne(doc, "/*[local-name()='project']/*[local-name()='parent']"); parent != nil {
		c := coordinates(parent)
		pom.Parent = &c
	}

	if props := xmlquery.FindOne(doc, "/*[local-name()='project']/*[local-name()='properties']"); props != nil {
		for c := props.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				pom.Properties = append(pom.Properties, domain.Property{
					Name:  c.Data,
					Value: strings.TrimSpace(c.InnerText()),
				})
			}
		}
	}

	for _, n := range xmlquery.Find(doc, "//*[local-name()='dependency']") {
		pom.Dependencies = append(pom.Dependencies, coordinates(n))
	}
	for _, n := range xmlquery.Find(doc, "//*[local-name()='plugin']") {
		c := coordinates(n)
		if c.GroupID == "" {
			c.GroupID = defaultPluginGroup
		}
		pom.Plugins = append(pom.Plugins, c)
	}
	return pom, nil
}

func coordinates(n *xmlquery.Node) domain.Coordinates {
	return domain.Coordinates{
		GroupID:    childText(n, "groupId"),
		ArtifactID: childText(n, "artifactId"),
		Version:    childText(n, "version"),
	}
}

func childText(n *xmlquery.Node, local string) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return strings.TrimSpace(c.InnerText())
		}
	}
	return ""
}
