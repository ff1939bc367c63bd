// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"errors"
	"testing"
)

func TestParseVersionMap(t *testing.T) {
	t.Run("duplicate records collapse", func(t *testing.T) {
		content := "t1,svcA,v1\nt1,svcA,v1\nt1,svcA,v2\n"

		sets, err := ParseVersionMap(content, "t1")
		if err != nil {
			t.Fatalf("ParseVersionMap: %v", err)
		}

		if len(sets) != 1 {
			t.Fatalf("len(sets) = %d, want 1", len(sets))
		}
		if sets[0].ServiceID != "svcA" {
			t.Errorf("ServiceID = %s, want svcA", sets[0].ServiceID)
		}
		if len(sets[0].VersionIDs) != 2 {
			t.Errorf("len(VersionIDs) = %d, want 2", len(sets[0].VersionIDs))
		}
		if !sets[0].Contains("v1") || !sets[0].Contains("v2") {
			t.Errorf("VersionIDs = %v, want {v1, v2}", sets[0].Sorted())
		}
	})

	t.Run("filters by release tag", func(t *testing.T) {
		content := "t1,default,v5\nt2,default,v6\nt1,tools,v3\n"

		sets, err := ParseVersionMap(content, "t1")
		if err != nil {
			t.Fatalf("ParseVersionMap: %v", err)
		}

		if len(sets) != 2 {
			t.Fatalf("len(sets) = %d, want 2", len(sets))
		}
		// Output is sorted by service id.
		if sets[0].ServiceID != "default" || sets[1].ServiceID != "tools" {
			t.Errorf("services = [%s %s], want [default tools]", sets[0].ServiceID, sets[1].ServiceID)
		}
		if sets[0].Contains("v6") {
			t.Error("v6 belongs to t2, must not appear in t1 results")
		}
	})

	t.Run("unknown tag yields empty result", func(t *testing.T) {
		sets, err := ParseVersionMap("t1,default,v5\n", "t9")
		if err != nil {
			t.Fatalf("ParseVersionMap: %v", err)
		}
		if len(sets) != 0 {
			t.Errorf("len(sets) = %d, want 0", len(sets))
		}
	})

	t.Run("wrong field count is fatal", func(t *testing.T) {
		_, err := ParseVersionMap("t1,default,v5\nt1,default\n", "t1")

		var malformed *MalformedRecordError
		if !errors.As(err, &malformed) {
			t.Fatalf("err = %v, want MalformedRecordError", err)
		}
		if malformed.Line != 2 {
			t.Errorf("Line = %d, want 2", malformed.Line)
		}
	})

	t.Run("empty field is fatal", func(t *testing.T) {
		_, err := ParseVersionMap("t1,,v5\n", "t1")

		var malformed *MalformedRecordError
		if !errors.As(err, &malformed) {
			t.Fatalf("err = %v, want MalformedRecordError", err)
		}
	})

	t.Run("trailing newline is not a record", func(t *testing.T) {
		if _, err := ParseVersionMap("t1,default,v5\n\n", "t1"); err != nil {
			t.Fatalf("ParseVersionMap: %v", err)
		}
	})
}

func TestParseSchemaTag(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		tag, err := ParseSchemaTag("schema-2026-08-01\n")
		if err != nil {
			t.Fatalf("ParseSchemaTag: %v", err)
		}
		if tag != "schema-2026-08-01" {
			t.Errorf("tag = %q, want schema-2026-08-01", tag)
		}
	})

	t.Run("multiple lines are fatal", func(t *testing.T) {
		_, err := ParseSchemaTag("tag-a\ntag-b\n")
		var malformed *MalformedRecordError
		if !errors.As(err, &malformed) {
			t.Fatalf("err = %v, want MalformedRecordError", err)
		}
	})

	t.Run("empty object is fatal", func(t *testing.T) {
		if _, err := ParseSchemaTag("\n"); err == nil {
			t.Fatal("expected error for empty object")
		}
	})
}
