package collectors

import "testing"

const pmonFixture = `# gpu         pid   type     sm    mem    enc    dec    jpg    ofa    command
# Idx           #    C/G      %      %      %      %      %      %    name
    0       2584     G     11      3      -      -      -      -    Xorg
    0       3056     G      8      2      -      -      -      -    gnome-shell
    0       4412     C     45     20      -      -      -      -    python
`

func TestParsePmonOutput(t *testing.T) {
	processes := parsePmonOutput(pmonFixture)
	if len(processes) != 3 {
		t.Fatalf("parsed %d processes, want 3", len(processes))
	}

	// Sorted by SM utilization descending.
	if processes[0].command != "python" || processes[0].smUtil != 45 {
		t.Errorf("top process = %+v, want python at 45%% sm", processes[0])
	}
	if processes[0].procType != "C" || processes[0].pid != 4412 {
		t.Errorf("top process = %+v, want compute pid 4412", processes[0])
	}
	if processes[0].memUtil != 20 {
		t.Errorf("top process mem util = %d, want 20", processes[0].memUtil)
	}
	if processes[2].command != "gnome-shell" {
		t.Errorf("last process = %q, want gnome-shell", processes[2].command)
	}
}

func TestParsePmonOutput_HeadersOnly(t *testing.T) {
	output := "# gpu         pid   type     sm    mem    enc    dec    jpg    ofa    command\n" +
		"# Idx           #    C/G      %      %      %      %      %      %    name\n"
	if got := parsePmonOutput(output); len(got) != 0 {
		t.Errorf("parsed %d processes from headers-only output, want 0", len(got))
	}
}

func TestParsePmonOutput_Empty(t *testing.T) {
	if got := parsePmonOutput(""); len(got) != 0 {
		t.Errorf("parsed %d processes from empty output, want 0", len(got))
	}
}
