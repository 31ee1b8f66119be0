package i18n

import "testing"

func TestBundleReturnsLabelsPerLanguage(t *testing.T) {
	b := MustNewBundle(LangEN)

	if got := b.For(LangEN).T(KeySituation); got != "Situation" {
		t.Fatalf("en situation = %q", got)
	}
	if got := b.For(LangZH).T(KeySituation); got != "情境" {
		t.Fatalf("zh situation = %q", got)
	}
}

func TestBundleFallsBackForUnknownLanguage(t *testing.T) {
	b := MustNewBundle(LangZH)

	l := b.For("fr")
	if l.Lang() != LangZH {
		t.Fatalf("lang = %q, want %q", l.Lang(), LangZH)
	}
	if got := l.T("no_such_key"); got != "no_such_key" {
		t.Fatalf("missing key = %q", got)
	}
}

func TestCatalogLanguagesHaveSameKeys(t *testing.T) {
	for key := range catalog[LangEN] {
		if _, ok := catalog[LangZH][key]; !ok {
			t.Errorf("zh missing key %q", key)
		}
	}
	for key := range catalog[LangZH] {
		if _, ok := catalog[LangEN][key]; !ok {
			t.Errorf("en missing key %q", key)
		}
	}
}
