package iosink

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleSinkPreservesWriteOrder(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	for _, chunk := range []string{"a", "b", "c"} {
		if err := sink.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "abc" {
		t.Fatalf("expected FIFO-ordered output \"abc\", got %q", buf.String())
	}
}

func TestConsoleSinkRejectsWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write("late"); err == nil {
		t.Fatal("expected error writing to closed sink")
	}
}

func TestConsoleSourceReadsLines(t *testing.T) {
	src := NewConsoleSource(strings.NewReader("hello\nworld\n"))
	line, err := src.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if line != "hello" {
		t.Fatalf("expected hello, got %q", line)
	}
	line, err = src.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if line != "world" {
		t.Fatalf("expected world, got %q", line)
	}
}
