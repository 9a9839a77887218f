package modbus

import "testing"

func TestRegister_DecodeValue(t *testing.T) {
	tests := []struct {
		name  string
		reg   Register
		words []uint16
		want  float64
	}{
		{
			name:  "uint16 scaled",
			reg:   Register{DataType: DataTypeUint16, Scale: 0.1},
			words: []uint16{1250},
			want:  125.0,
		},
		{
			name:  "int16 negative",
			reg:   Register{DataType: DataTypeInt16, Scale: 1},
			words: []uint16{0xFFFF - 101 + 1}, // -101 two's complement at 16 bits
			want:  -101,
		},
		{
			name:  "int16 with offset (temperature)",
			reg:   Register{DataType: DataTypeInt16, Scale: 0.1, Offset: -100},
			words: []uint16{1050},
			want:  5.0,
		},
		{
			name:  "uint32 little-endian word order",
			reg:   Register{DataType: DataTypeUint32, Scale: 0.1},
			words: []uint16{0x0001, 0x0000}, // low word 1, high word 0 => raw 1
			want:  0.1,
		},
		{
			name:  "int32 negative",
			reg:   Register{DataType: DataTypeInt32, Scale: 1},
			words: []uint16{0xFFFF, 0xFFFF}, // raw -1
			want:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.reg.DecodeValue(tt.words)
			if got != tt.want {
				t.Errorf("DecodeValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDataType_WordCount(t *testing.T) {
	if DataTypeInt16.WordCount() != 1 {
		t.Error("int16 should be 1 word")
	}
	if DataTypeUint16.WordCount() != 1 {
		t.Error("uint16 should be 1 word")
	}
	if DataTypeInt32.WordCount() != 2 {
		t.Error("int32 should be 2 words")
	}
	if DataTypeUint32.WordCount() != 2 {
		t.Error("uint32 should be 2 words")
	}
}

func TestByScanGroup_PartitionsTheFullTable(t *testing.T) {
	seen := map[string]bool{}
	fast := ByScanGroup("fast")
	normal := ByScanGroup("normal")
	slow := ByScanGroup("slow")

	total := len(fast) + len(normal) + len(slow)
	if total != len(Registers) {
		t.Errorf("ByScanGroup partitions = %d total, want %d (len(Registers))", total, len(Registers))
	}
	for _, r := range append(append(fast, normal...), slow...) {
		if seen[r.Name] {
			t.Errorf("register %q appears in more than one scan group", r.Name)
		}
		seen[r.Name] = true
	}
}

func TestDescriptors_NoDuplicateNames(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Descriptors() {
		if seen[d.Name] {
			t.Errorf("duplicate descriptor name %q", d.Name)
		}
		seen[d.Name] = true
	}
}
