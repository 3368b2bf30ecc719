package corpuspath

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		in     string
		ns     string
		remain string
	}{
		{"local:/a/b.cdm.json", "local", "/a/b.cdm.json"},
		{"/a/b.cdm.json", "", "/a/b.cdm.json"},
		{"b.cdm.json/Entity", "", "b.cdm.json/Entity"},
		{"a/b:c", "", "a/b:c"},
		{":/x", "", ":/x"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ns, rest := Split(tt.in)
			if ns != tt.ns || rest != tt.remain {
				t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tt.in, ns, rest, tt.ns, tt.remain)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"local:/a/./b/../c.csv", "local:/a/c.csv"},
		{"local:/a//b/", "local:/a/b/"},
		{"local:a/b", "local:/a/b"},
		{"/x/../../y", "/y"},
		{"rel/./file", "rel/file"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToRelative(t *testing.T) {
	const folder = "local:/sales/"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"inside folder", "local:/sales/orders/part-1.csv", "orders/part-1.csv"},
		{"direct child", "local:/sales/Order.cdm.json/Order", "Order.cdm.json/Order"},
		{"outside folder", "local:/hr/people.csv", "local:/hr/people.csv"},
		{"other namespace", "adls:/sales/part.csv", "adls:/sales/part.csv"},
		{"sibling prefix", "local:/salesforce/a.csv", "local:/salesforce/a.csv"},
		{"already relative", "part.csv", "part.csv"},
		{"empty", "", ""},
		{"folder itself", "local:/sales/", "local:/sales/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRelative(tt.in, folder); got != tt.want {
				t.Errorf("ToRelative(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToAbsolute(t *testing.T) {
	const folder = "local:/sales/"
	tests := []struct {
		in   string
		want string
	}{
		{"orders/part-1.csv", "local:/sales/orders/part-1.csv"},
		{"../hr/people.csv", "local:/hr/people.csv"},
		{"./a.csv", "local:/sales/a.csv"},
		{"local:/hr/people.csv", "local:/hr/people.csv"},
		{"/plain/abs.csv", "/plain/abs.csv"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToAbsolute(tt.in, folder); got != tt.want {
			t.Errorf("ToAbsolute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToAbsolute_FolderWithoutTrailingSlash(t *testing.T) {
	if got := ToAbsolute("a.csv", "local:/sales"); got != "local:/sales/a.csv" {
		t.Errorf("got %q", got)
	}
}

func TestRoundTripReachablePaths(t *testing.T) {
	folders := []string{"local:/", "local:/sales/", "adls:/deep/nested/folder/"}
	paths := []string{
		"local:/sales/orders/part-1.csv",
		"local:/sales/Order.cdm.json/Order",
		"local:/hr/people.csv",
		"adls:/deep/nested/folder/x.csv",
		"adls:/deep/other.csv",
		"local:/a/./b/../c.csv",
	}
	for _, f := range folders {
		for _, p := range paths {
			rel := ToRelative(p, f)
			if got := ToAbsolute(rel, f); got != Normalize(p) && got != p {
				t.Errorf("folder %q: ToAbsolute(ToRelative(%q)) = %q (rel %q)", f, p, got, rel)
			}
			if Normalize(p) == p {
				if got := ToAbsolute(rel, f); got != p {
					t.Errorf("folder %q: normalized %q did not round trip, got %q", f, p, got)
				}
			}
		}
	}
}

func TestFolderAndLastSegment(t *testing.T) {
	if got := Folder("local:/sales/Order.cdm.json"); got != "local:/sales/" {
		t.Errorf("Folder = %q", got)
	}
	if got := Folder("Order.cdm.json"); got != "/" {
		t.Errorf("Folder(no slash) = %q", got)
	}
	if got := LastSegment("local:/sales/Order.cdm.json/Order"); got != "Order" {
		t.Errorf("LastSegment = %q", got)
	}
	if got := LastSegment("Order"); got != "Order" {
		t.Errorf("LastSegment(no slash) = %q", got)
	}
}
