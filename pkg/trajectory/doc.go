// Package trajectory loads optimizer trajectory logs.
//
// A trajectory log is a CSV file with one row per agent per recorded
// iteration. Three columns are required and located by header name:
//
//	Iteration,Fitness,Position,TemperatureProfile
//	0,12.503311,3.250000_-7.100000,1.000000
//	0,4.118000,0.750000_1.900000,1.000000
//
// Position holds both coordinates joined by an underscore. Any other column
// is ignored.
//
// # Grouping
//
// [Load] partitions records by iteration once, keeping input order inside
// each group, and sorts the distinct iteration values ascending. That sorted
// order is the render order of the animation, independent of the row order
// of the file.
//
// # Best record
//
// [Group.Best] returns the record with the minimum fitness. Ties go to the
// record that appears first in the input.
package trajectory
