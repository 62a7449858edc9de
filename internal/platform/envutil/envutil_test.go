package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("CVX_INT", " 7 ")
	if got := Int("CVX_INT", 3); got != 7 {
		t.Fatalf("Int = %d, want 7", got)
	}
	t.Setenv("CVX_INT", "seven")
	if got := Int("CVX_INT", 3); got != 3 {
		t.Fatalf("Int with garbage = %d, want default 3", got)
	}
}

func TestBoolAndFloat(t *testing.T) {
	t.Setenv("CVX_BOOL", "off")
	if Bool("CVX_BOOL", true) {
		t.Fatalf("Bool(off) should be false")
	}
	t.Setenv("CVX_BOOL", "maybe")
	if !Bool("CVX_BOOL", true) {
		t.Fatalf("Bool(maybe) should fall back to default")
	}
	t.Setenv("CVX_FLOAT", "2.5")
	if got := Float("CVX_FLOAT", 0); got != 2.5 {
		t.Fatalf("Float = %v", got)
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("CVX_SECS", "0")
	if got := Seconds("CVX_SECS", time.Minute); got != time.Minute {
		t.Fatalf("Seconds(0) = %v, want default", got)
	}
	t.Setenv("CVX_SECS", "90")
	if got := Seconds("CVX_SECS", time.Minute); got != 90*time.Second {
		t.Fatalf("Seconds(90) = %v", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("CVX_LIST", "PDF, docx,, txt ")
	got := List("CVX_LIST", nil)
	want := []string{"pdf", "docx", "txt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}
