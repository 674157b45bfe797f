// Package tabula reads and writes columnar text data files described by a
// structure file.
//
// A structure file lists, line by line, where each named value sits on a
// data line: a whole line, a whitespace-separated token, a fixed character
// range, or every token as an array. Directives group line-specs into blocs
// that repeat a fixed number of times or as many times as a value read
// earlier says, mark values that are written once per file, and read a
// variable number of lines into arrays.
//
// # Architecture
//
//   - pkg/structure compiles structure files into an immutable plan.
//   - pkg/reader drives the plan over a data file and assembles a table.
//   - pkg/condition filters tables with clauses such as "T9 < 0.002" or
//     "'H' in element".
//   - pkg/writer renders a table back to text with any plan.
//   - pkg/json, pkg/formats/columnar and pkg/formats/sqlite export tables
//     to JSON, Arrow, Parquet, Avro and SQLite.
//   - pkg/storage opens local, s3:// and gs:// paths with transparent
//     compression chosen by suffix.
//   - internal/pipeline runs multi-file jobs concurrently.
//
// # Quick Start
//
//	spec, header, err := structure.Compile(ctx, "rates.struct")
//	if err != nil {
//	    return err
//	}
//	tbl, err := reader.Read(ctx, "rates.dat.gz", spec, header)
//	if err != nil {
//	    return err
//	}
//	hot, err := condition.Filter(tbl, "T9 > 1")
//	if err != nil {
//	    return err
//	}
//	return writer.Write(ctx, "rates_hot.dat", spec, header, hot)
//
// # Command Line
//
//	tabula read -s rates.struct rates_*.dat --where "T9 < 0.002" --select T9,rate
//	tabula convert -s rates.struct rates.dat --to-structure compact.struct --out compact.dat
//	tabula inspect -s rates.struct
//	tabula config init tabula.yaml
//
// # Observability
//
// Every package logs through pkg/logger (zap), records Prometheus metrics in
// pkg/metrics and opens OpenTelemetry spans through pkg/observability. The
// CLI dumps metrics with --metrics-out and prints spans with --trace.
package tabula
