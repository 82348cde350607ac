// Package design composes processes into a full state-space model.
//
// A Design holds an ordered set of processes and the measures they
// contribute to. The state vector is the concatenation of every process's
// state block, in process order, and the measurement matrix has one row per
// measure with each process's loading placed in the rows of the measures it
// is associated with.
//
// # Basic Usage
//
//	level := process.NewLocalLevel("level")
//	level.AddMeasure("sales")
//	dow := process.NewSeason("day_of_week", 7)
//	dow.AddMeasure("sales")
//
//	d, err := design.New([]string{"sales"}, level, dow)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fb, err := d.ForBatch(numGroups, numTimesteps, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	f := fb.F(0) // one transition matrix per group
//
// # Batches
//
// ForBatch reads the current parameter values once and returns a value
// that does not change afterwards. Calling it again with the same arguments
// gives matrices equal at every timestep.
package design
