package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const fullPage = `<!DOCTYPE html>
<html>
<head>
  <title>Weekly Prices</title>
  <meta name="description" content="Tracking grocery prices">
  <meta name="keywords" content="cpi,prices,groceries">
  <meta name="author" content="Jake">
  <meta property="og:title" content="ignored">
</head>
<body><title>second title</title></body>
</html>`

func TestExtractAllFields(t *testing.T) {
	t.Parallel()

	doc, err := Parse(fullPage)
	require.NoError(t, err)

	meta, err := Extract(doc)
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	require.Equal(t, "Weekly Prices", *meta.Title)
	require.Equal(t, "Tracking grocery prices", *meta.Description)
	require.Equal(t, "cpi,prices,groceries", *meta.Keywords)
	require.Equal(t, "Jake", *meta.Author)
}

func TestExtractTitleOnly(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<html><head><title>Hello</title></head><body></body></html>`)
	require.NoError(t, err)

	meta, err := Extract(doc)
	require.NoError(t, err)
	require.Equal(t, "Hello", *meta.Title)
	require.Nil(t, meta.Description)
	require.Nil(t, meta.Keywords)
	require.Nil(t, meta.Author)
}

func TestSelectorsReturnAbsentOnNoMatch(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<p>no head at all</p>`)
	require.NoError(t, err)

	text, ok, err := SelectText(doc, "h1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, text)

	value, ok, err := SelectAttribute(doc, "meta[name=author]", "content")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, value)
}

func TestSelectAttributeMissingAttribute(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<head><meta name="description"></head>`)
	require.NoError(t, err)

	_, _, err = SelectAttribute(doc, DescriptionSelector, "content")
	require.ErrorIs(t, err, ErrAttributeMissing)

	_, err = Extract(doc)
	require.ErrorIs(t, err, ErrAttributeMissing)
}

func TestSelectEmptyContentIsPresent(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<head><title></title><meta name="keywords" content=""></head>`)
	require.NoError(t, err)

	meta, err := Extract(doc)
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	require.Empty(t, *meta.Title)
	require.NotNil(t, meta.Keywords)
	require.Empty(t, *meta.Keywords)
}

func TestInvalidSelector(t *testing.T) {
	t.Parallel()

	doc, err := Parse(fullPage)
	require.NoError(t, err)

	_, _, err = SelectText(doc, "meta[name=")
	require.Error(t, err)
}

func TestNilDocument(t *testing.T) {
	t.Parallel()

	_, _, err := SelectText(nil, TitleSelector)
	require.Error(t, err)
}
