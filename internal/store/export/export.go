// Package export writes archived games to Parquet for offline analysis.
package export

import (
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/park285/immersive-chess/internal/store/archive"
)

const parallel = 4

// Row is one game in the Parquet file.
type Row struct {
	GameID      string `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date        string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	White       string `parquet:"name=white, type=BYTE_ARRAY, convertedtype=UTF8"`
	Black       string `parquet:"name=black, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result      string `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	Termination string `parquet:"name=termination, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount   int32  `parquet:"name=move_count, type=INT32"`
	MovesUCI    string `parquet:"name=moves_uci, type=BYTE_ARRAY, convertedtype=UTF8"`
	EndedAtMs   int64  `parquet:"name=ended_at_ms, type=INT64"`
}

func RowOf(g archive.Game) Row {
	return Row{
		GameID:      g.GameID,
		Date:        g.Date,
		White:       g.White,
		Black:       g.Black,
		Result:      g.Result,
		Termination: g.Termination,
		MoveCount:   int32(len(g.MovesUCI)),
		MovesUCI:    strings.Join(g.MovesUCI, " "),
		EndedAtMs:   g.EndedAt.UnixMilli(),
	}
}

// WriteParquet writes games to path with SNAPPY compression.
func WriteParquet(path string, games []archive.Game) error {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(Row), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, g := range games {
		if err := parquetWriter.Write(RowOf(g)); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads every row of a file written by WriteParquet.
func ReadParquet(path string) ([]Row, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(Row), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	rows := make([]Row, num)
	if num == 0 {
		return rows, nil
	}
	if err := parquetReader.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
