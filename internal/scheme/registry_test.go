package scheme

import "testing"

func TestNewRegistryHasDefault(t *testing.T) {
	r := NewRegistry()
	s, ok := r.Resolve(DefaultTemplate())
	if !ok {
		t.Fatalf("default scheme 应内置注册")
	}
	if !s.Options.AllowChildren {
		t.Fatalf("default scheme 应允许子页面")
	}
}

func TestRegisterResolveAndList(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Scheme{Template: "Gallery"}); err != nil {
		t.Fatalf("register gallery failed: %v", err)
	}
	if _, ok := r.Resolve("GALLERY"); !ok {
		t.Fatalf("resolve should be case-insensitive")
	}
	keys := r.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys 未排序: %v", keys)
		}
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Scheme{Template: "default"}); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
}

func TestLookupFallsBackToDefault(t *testing.T) {
	r := NewRegistry()
	s := r.Lookup("unknown-template")
	if s.Template != DefaultTemplate() {
		t.Fatalf("未知模板应回退 default，得到 %s", s.Template)
	}
}

func TestOverrideMergesDefaults(t *testing.T) {
	r := NewRegistry()
	paginate := true
	merged, err := r.Override("default", Overrides{
		OrderBy:    OrderDate,
		Pagination: &paginate,
		Defaults:   map[string]interface{}{"author": "ops"},
	})
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	if merged.Options.DateField != "date" {
		t.Fatalf("date 排序应自动补齐 DateField，得到 %q", merged.Options.DateField)
	}
	if !merged.Options.Pagination {
		t.Fatalf("Pagination 覆盖未生效")
	}
	if v, _ := merged.Default("published"); v != true {
		t.Fatalf("原有默认值应保留")
	}
	if v, _ := merged.Default("author"); v != "ops" {
		t.Fatalf("新增默认值未合并")
	}
	if !merged.Options.AllowChildren {
		t.Fatalf("未覆盖的选项应保留基础值")
	}
}

func TestOverrideCreatesNewTemplate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Override("landing", Overrides{Description: "landing"}); err != nil {
		t.Fatalf("override failed: %v", err)
	}
	s, ok := r.Resolve("landing")
	if !ok {
		t.Fatalf("新模板应被注册")
	}
	if v, _ := s.Default("published"); v != true {
		t.Fatalf("新模板应继承 default 的默认值")
	}
}

func TestEqualValuesAcrossNumericTypes(t *testing.T) {
	if !EqualValues(int64(3), 3) {
		t.Fatalf("int64 与 int 应视为相等")
	}
	if !EqualValues([]interface{}{"a", 1}, []interface{}{"a", int64(1)}) {
		t.Fatalf("列表逐项比较失败")
	}
	if EqualValues("1", []interface{}{"1"}) {
		t.Fatalf("标量与列表不应相等")
	}
	if !EqualValues(float64(2), uint8(2)) {
		t.Fatalf("float64 与 uint8 应视为相等")
	}
}

func TestEqualValuesKeepsKindsApart(t *testing.T) {
	cases := []struct {
		name string
		a, b interface{}
	}{
		{"字符串与布尔", "true", true},
		{"字符串与整数", "1", 1},
		{"字符串与浮点", "2.5", 2.5},
		{"布尔与整数", true, 1},
		{"列表内的字符串与布尔", []interface{}{"false"}, []interface{}{false}},
		{"缺失键与 nil", map[string]interface{}{"a": nil}, map[string]interface{}{"b": nil}},
	}
	for _, tc := range cases {
		if EqualValues(tc.a, tc.b) {
			t.Fatalf("%s: %#v 与 %#v 不应相等", tc.name, tc.a, tc.b)
		}
	}
}
