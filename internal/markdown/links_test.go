package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinks_FigureWithAttributes(t *testing.T) {
	links, err := ExtractLinks([]byte("![The architecture](img/arch.svg){#fig:arch width=80%}\n"), Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindImage, links[0].Kind)
	require.Equal(t, "img/arch.svg", links[0].Destination)
}

func TestExtractLinks_ReferenceLinkUsageAndDefinition(t *testing.T) {
	src := []byte("See [API][ref].\n\n[ref]: api.md\n")
	links, err := ExtractLinks(src, Options{})
	require.NoError(t, err)

	require.Len(t, links, 2)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "api.md", links[0].Destination)
	require.Equal(t, LinkKindReferenceDefinition, links[1].Kind)
}

func TestExtractLinks_SkipsListings(t *testing.T) {
	src := []byte("" +
		"Listing: Example.\n" +
		"\n" +
		"```{#lst:x .python .numberLines}\n" +
		"print('[Link](./ignored-fence.md)')\n" +
		"```\n" +
		"\n" +
		"Real: [OK](./real.md)\n")

	links, err := ExtractLinks(src, Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "./real.md", links[0].Destination)
}

func TestLocalDestinations(t *testing.T) {
	src := []byte("" +
		"![a](img/a.png){#fig:a} and ![again](img/a.png)\n\n" +
		"[ref](#def:pyth) [web](https://example.org) <https://example.com>\n\n" +
		"[file](notes%20v2.md#top)\n")

	got, err := LocalDestinations(src)
	require.NoError(t, err)
	require.Equal(t, []string{"img/a.png", "notes v2.md"}, got)
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML([]byte("# Downloads\n\nGet the *book*.\n"), Options{})
	require.NoError(t, err)
	require.Equal(t, "<h1>Downloads</h1>\n<p>Get the <em>book</em>.</p>\n", string(out))

	out, err = RenderHTML([]byte("| a |\n|---|\n| 1 |\n"), Options{GFM: true})
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")

	out, err = RenderHTML([]byte("<b>raw</b>\n"), Options{Unsafe: true})
	require.NoError(t, err)
	require.Contains(t, string(out), "<b>raw</b>")
}
