package input

import "testing"

func TestScript_PlaysStepsInOrder(t *testing.T) {
	up := Snapshot{ThrottleUp: true}
	left := Snapshot{YawLeft: true}
	s := NewScript(false, Step{Snapshot: up, Ticks: 2}, Step{Snapshot: left, Ticks: 0}, Step{Snapshot: left, Ticks: 1})

	expected := []Snapshot{up, up, left, {}, {}}
	for i, want := range expected {
		if got := s.Sample(); got != want {
			t.Errorf("tick %d: Sample() = %+v, expected %+v", i, got, want)
		}
	}
	if !s.Done() {
		t.Error("Done() = false after script exhausted")
	}
}

func TestScript_Loop(t *testing.T) {
	s := NewScript(true, Step{Snapshot: Snapshot{PitchUp: true}, Ticks: 1}, Step{Ticks: 1})
	for i := 0; i < 6; i++ {
		got := s.Sample()
		if want := i%2 == 0; got.PitchUp != want {
			t.Errorf("tick %d: PitchUp = %v, expected %v", i, got.PitchUp, want)
		}
	}
	if s.Done() {
		t.Error("looping script reported Done")
	}
}

func TestScript_EmptyLoopIsIdle(t *testing.T) {
	s := NewScript(true)
	if got := s.Sample(); !got.Idle() {
		t.Errorf("Sample() = %+v, expected idle", got)
	}
}

func TestParseScript(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		first   Snapshot
		ticks   int
	}{
		{
			name:  "single_control_with_count",
			text:  "throttleUp*50",
			first: Snapshot{ThrottleUp: true},
			ticks: 50,
		},
		{
			name:  "combined_controls",
			text:  "yawLeft+throttleUp*3, idle*2",
			first: Snapshot{YawLeft: true, ThrottleUp: true},
			ticks: 5,
		},
		{
			name:  "default_count",
			text:  "reset",
			first: Snapshot{Reset: true},
			ticks: 1,
		},
		{
			name:    "unknown_control",
			text:    "barrelRoll*3",
			wantErr: true,
		},
		{
			name:    "bad_count",
			text:    "throttleUp*x",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    " , ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScript(tt.text, false)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScript() error = %v", err)
			}
			if got := s.Sample(); got != tt.first {
				t.Errorf("first Sample() = %+v, expected %+v", got, tt.first)
			}
			played := 1
			for !s.Done() {
				s.Sample()
				played++
			}
			if played != tt.ticks {
				t.Errorf("script played %d ticks, expected %d", played, tt.ticks)
			}
		})
	}
}
