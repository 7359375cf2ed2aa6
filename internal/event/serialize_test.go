package event

import "testing"

func sampleEvent() *Event {
	e := New(1234567890, "Last Written", "windows:registry:key", "winreg")
	e.Set("filename", String("/Windows/System32/config/SYSTEM"))
	e.Set("offset", Int(128))
	e.Set("ratio", Float(3.5))
	e.Set("verified", Bool(true))
	e.Set("empty", Value{Kind: KindNull})
	e.Set("tags", List([]Value{String("a"), String("b"), Int(3)}))
	e.Set("nested", Map(map[string]Value{
		"name":  String("a"),
		"funcs": List([]Value{String("X"), String("Y")}),
	}))
	return e
}

func TestRoundTripAllSerializers(t *testing.T) {
	for _, id := range []SerializerID{SerializerLegacyProto, SerializerLengthPrefixed, SerializerLengthPrefixedSnappy} {
		s, err := Lookup(id)
		if err != nil {
			t.Fatalf("lookup %d: %v", id, err)
		}

		orig := sampleEvent()
		data, err := s.Serialize(orig)
		if err != nil {
			t.Fatalf("serializer %d: serialize: %v", id, err)
		}

		got, err := s.Deserialize(data)
		if err != nil {
			t.Fatalf("serializer %d: deserialize: %v", id, err)
		}

		if got.Timestamp != orig.Timestamp || got.TimestampDesc != orig.TimestampDesc ||
			got.DataType != orig.DataType || got.Parser != orig.Parser {
			t.Fatalf("serializer %d: scalar fields mismatch: %+v vs %+v", id, got, orig)
		}
		if len(got.Attributes) != len(orig.Attributes) {
			t.Fatalf("serializer %d: attribute count mismatch: got %d want %d", id, len(got.Attributes), len(orig.Attributes))
		}
		for k, v := range orig.Attributes {
			gv, ok := got.Attributes[k]
			if !ok {
				t.Fatalf("serializer %d: missing attribute %q after round trip", id, k)
			}
			if !gv.Equal(v) {
				t.Fatalf("serializer %d: attribute %q mismatch: got %+v want %+v", id, k, gv, v)
			}
		}
	}
}

func TestLookupUnknownSerializer(t *testing.T) {
	if _, err := Lookup(99); err != ErrUnknownSerializer {
		t.Fatalf("expected ErrUnknownSerializer, got %v", err)
	}
}
