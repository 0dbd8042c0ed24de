package cpu

import "testing"

func TestSetInterruptController(t *testing.T) {
	defer SetInterruptController(func() {}, func() {}, func() {})

	var enabled, disabled, waited int
	SetInterruptController(
		func() { enabled++ },
		func() { disabled++ },
		func() { waited++ },
	)

	c := &CPU{}
	c.EnableInterrupts()
	c.DisableInterrupts()
	c.WaitForInterrupt()

	if enabled != 1 || disabled != 1 || waited != 1 {
		t.Fatalf("got enabled=%d disabled=%d waited=%d, want 1/1/1", enabled, disabled, waited)
	}
}

func TestCriticalSectionSerializes(t *testing.T) {
	done := make(chan struct{})
	entered := make(chan struct{})

	go CriticalSection(func() {
		close(entered)
		<-done
	})

	<-entered

	releasedSecond := make(chan struct{})
	go func() {
		CriticalSection(func() {})
		close(releasedSecond)
	}()

	select {
	case <-releasedSecond:
		t.Fatal("second CriticalSection ran before the first one released")
	default:
	}

	close(done)
	<-releasedSecond
}
