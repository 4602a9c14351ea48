package model

import "testing"

func TestStringArray_ScanValue(t *testing.T) {
	var a StringArray
	if err := a.Scan([]byte(`{STUDENT,"FACULTY"}`)); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(a) != 2 || a[0] != RoleStudent || a[1] != RoleFaculty {
		t.Fatalf("解析结果不符: %v", a)
	}

	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}
	if v != "{STUDENT,FACULTY}" {
		t.Errorf("期望 {STUDENT,FACULTY}，实际 %v", v)
	}

	var empty StringArray
	if err := empty.Scan("{}"); err != nil || len(empty) != 0 || empty == nil {
		t.Errorf("空数组应解析为非 nil 空切片，实际 %#v err=%v", empty, err)
	}
	if err := empty.Scan(42); err == nil {
		t.Error("不支持的类型应报错")
	}
}

func TestStringArray_Contains(t *testing.T) {
	roles := StringArray{RoleFaculty, RoleCoordinator}
	if !roles.Contains(RoleStudent, RoleCoordinator) {
		t.Error("应包含 COORDINATOR")
	}
	if roles.Contains(RoleAdmin) {
		t.Error("不应包含 ADMIN")
	}
}
