package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"smartval/internal/model"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Workbook sheet names the importer requires.
const (
	sheetAgents = "仲介"
	sheetBuyers = "買家"
	sheetHouses = "房屋"
)

// ImportStore is the persistence surface the Excel importer needs.
type ImportStore interface {
	UpsertAgents(ctx context.Context, agents []model.Agent) error
	UpsertBuyers(ctx context.Context, buyers []model.Buyer) error
	AgentIDsByName(ctx context.Context, names []string) (map[string]int64, error)
	BuyerIDsByName(ctx context.Context, names []string) (map[string]int64, error)
	UpsertHouses(ctx context.Context, houses []model.House) error
}

// ImportSummary reports how many rows each sheet contributed.
type ImportSummary struct {
	Agents int `json:"agents"`
	Buyers int `json:"buyers"`
	Houses int `json:"houses"`
}

// Importer ingests the bulk-upload workbook: agents and buyers first, then
// houses keyed by address and linked to them by name.
type Importer struct {
	store     ImportStore
	batchSize int
	logger    *zap.Logger
}

// NewImporter creates an importer writing in batches of batchSize rows.
func NewImporter(store ImportStore, batchSize int, logger *zap.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Importer{store: store, batchSize: batchSize, logger: logger}
}

// ImportWorkbook parses and persists one uploaded workbook. Any malformed
// house row aborts the import with an error naming the Excel row, so the
// uploader can fix the file instead of guessing.
func (im *Importer) ImportWorkbook(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("無法讀取 Excel 檔案: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		sheets[name] = true
	}
	for _, required := range []string{sheetAgents, sheetBuyers, sheetHouses} {
		if !sheets[required] {
			return nil, fmt.Errorf("缺少「%s」工作表", required)
		}
	}

	summary := &ImportSummary{}

	agents, err := im.parseAgents(f)
	if err != nil {
		return nil, err
	}
	for _, batch := range chunkAgents(agents, im.batchSize) {
		if err := im.store.UpsertAgents(ctx, batch); err != nil {
			return nil, fmt.Errorf("匯入仲介失敗: %w", err)
		}
	}
	summary.Agents = len(agents)

	buyers, err := im.parseBuyers(f)
	if err != nil {
		return nil, err
	}
	for _, batch := range chunkBuyers(buyers, im.batchSize) {
		if err := im.store.UpsertBuyers(ctx, batch); err != nil {
			return nil, fmt.Errorf("匯入買家失敗: %w", err)
		}
	}
	summary.Buyers = len(buyers)

	houses, err := im.parseHouses(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, batch := range chunkHouses(houses, im.batchSize) {
		if err := im.store.UpsertHouses(ctx, batch); err != nil {
			return nil, fmt.Errorf("匯入房屋失敗: %w", err)
		}
	}
	summary.Houses = len(houses)

	im.logger.Info("excel import completed",
		zap.Int("agents", summary.Agents),
		zap.Int("buyers", summary.Buyers),
		zap.Int("houses", summary.Houses),
	)
	return summary, nil
}

func (im *Importer) parseAgents(f *excelize.File) ([]model.Agent, error) {
	rows, err := f.GetRows(sheetAgents)
	if err != nil {
		return nil, fmt.Errorf("讀取「%s」工作表失敗: %w", sheetAgents, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := headerIndex(rows[0])
	var agents []model.Agent
	for _, row := range rows[1:] {
		name := cell(row, idx["姓名"])
		if name == "" {
			continue
		}
		agents = append(agents, model.Agent{
			Name:    name,
			Phone:   optCell(row, idx["聯絡電話"]),
			Email:   optCell(row, idx["電子郵件"]),
			Company: optCell(row, idx["隸屬公司"]),
			Branch:  optCell(row, idx["分行名稱"]),
			City:    optCell(row, idx["分行縣市"]),
			Town:    optCell(row, idx["分行行政區"]),
		})
	}
	return agents, nil
}

func (im *Importer) parseBuyers(f *excelize.File) ([]model.Buyer, error) {
	rows, err := f.GetRows(sheetBuyers)
	if err != nil {
		return nil, fmt.Errorf("讀取「%s」工作表失敗: %w", sheetBuyers, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := headerIndex(rows[0])
	var buyers []model.Buyer
	for _, row := range rows[1:] {
		name := cell(row, idx["姓名"])
		if name == "" {
			continue
		}
		buyers = append(buyers, model.Buyer{
			Name:  name,
			Phone: optCell(row, idx["聯絡電話"]),
			Email: optCell(row, idx["電子郵件"]),
		})
	}
	return buyers, nil
}

func (im *Importer) parseHouses(ctx context.Context, f *excelize.File) ([]model.House, error) {
	rows, err := f.GetRows(sheetHouses)
	if err != nil {
		return nil, fmt.Errorf("讀取「%s」工作表失敗: %w", sheetHouses, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := headerIndex(rows[0])

	// Collect referenced names first so ids resolve in one round trip each.
	nameSet := func(col string) []string {
		seen := make(map[string]bool)
		var names []string
		for _, row := range rows[1:] {
			if n := cell(row, idx[col]); n != "" && !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
		return names
	}
	agentIDs, err := im.store.AgentIDsByName(ctx, nameSet("仲介"))
	if err != nil {
		return nil, fmt.Errorf("查詢仲介失敗: %w", err)
	}
	buyerIDs, err := im.store.BuyerIDsByName(ctx, nameSet("買家"))
	if err != nil {
		return nil, fmt.Errorf("查詢買家失敗: %w", err)
	}

	var houses []model.House
	for i, row := range rows[1:] {
		// +2: one for the header, one because Excel rows are 1-based.
		excelRow := i + 2

		address := cell(row, idx["地址"])
		if address == "" {
			return nil, fmt.Errorf("第 %d 行: 地址為必填", excelRow)
		}

		agentName := cell(row, idx["仲介"])
		agentID, ok := agentIDs[agentName]
		if !ok {
			return nil, fmt.Errorf("第 %d 行: 找不到仲介「%s」", excelRow, agentName)
		}
		buyerName := cell(row, idx["買家"])
		buyerID, ok := buyerIDs[buyerName]
		if !ok {
			return nil, fmt.Errorf("第 %d 行: 找不到買家「%s」", excelRow, buyerName)
		}

		h := model.House{
			Address:   address,
			City:      optCell(row, idx["縣市"]),
			Town:      optCell(row, idx["行政區"]),
			HouseType: optCell(row, idx["房屋類型"]),
			SoldTime:  optDateCell(row, idx["出售日期"]),
			AgentID:   &agentID,
			BuyerID:   &buyerID,
		}

		numErr := func(field string) error {
			return fmt.Errorf("第 %d 行: 欄位 %s 格式錯誤 (%s)", excelRow, field, cell(row, idx[field]))
		}
		if h.FloorNumber, err = optIntCell(row, idx["所在層數"]); err != nil {
			return nil, numErr("所在層數")
		}
		if h.TotalFloors, err = optIntCell(row, idx["地上總層數"]); err != nil {
			return nil, numErr("地上總層數")
		}
		if h.RoomCount, err = optIntCell(row, idx["房間數"]); err != nil {
			return nil, numErr("房間數")
		}
		if h.TotalPrice, err = optIntCell(row, idx["總價格（萬元）"]); err != nil {
			return nil, numErr("總價格（萬元）")
		}
		if h.UnitPrice, err = optFloatCell(row, idx["建坪單價(萬元/坪)"]); err != nil {
			return nil, numErr("建坪單價(萬元/坪)")
		}
		if h.LandArea, err = optFloatCell(row, idx["地坪"]); err != nil {
			return nil, numErr("地坪")
		}
		if h.FloorArea, err = optFloatCell(row, idx["建坪"]); err != nil {
			return nil, numErr("建坪")
		}
		if h.HouseAge, err = optFloatCell(row, idx["屋齡（年）"]); err != nil {
			return nil, numErr("屋齡（年）")
		}
		if h.Longitude, err = optFloatCell(row, idx["經度"]); err != nil {
			return nil, numErr("經度")
		}
		if h.Latitude, err = optFloatCell(row, idx["緯度"]); err != nil {
			return nil, numErr("緯度")
		}

		houses = append(houses, h)
	}
	return houses, nil
}

// --- cell helpers ---

// headerIndex maps header names to column positions. Unknown headers are
// ignored; missing ones resolve to -1 via the map zero-value trick below.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i + 1 // 1-based so the zero value means "absent"
	}
	return idx
}

func cell(row []string, pos int) string {
	if pos <= 0 || pos > len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos-1])
}

func optCell(row []string, pos int) *string {
	v := cell(row, pos)
	if v == "" {
		return nil
	}
	return &v
}

// optDateCell keeps only the date part of a datetime cell.
func optDateCell(row []string, pos int) *string {
	v := cell(row, pos)
	if v == "" {
		return nil
	}
	v = strings.SplitN(v, " ", 2)[0]
	return &v
}

func optFloatCell(row []string, pos int) (*float64, error) {
	v := cell(row, pos)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// optIntCell parses via float first: Excel renders integer cells as "12.0"
// often enough that a strict Atoi rejects valid data.
func optIntCell(row []string, pos int) (*int, error) {
	v := cell(row, pos)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	n := int(f)
	return &n, nil
}

// --- batching helpers ---

func chunkAgents(all []model.Agent, size int) [][]model.Agent {
	var chunks [][]model.Agent
	for start := 0; start < len(all); start += size {
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		chunks = append(chunks, all[start:end])
	}
	return chunks
}

func chunkBuyers(all []model.Buyer, size int) [][]model.Buyer {
	var chunks [][]model.Buyer
	for start := 0; start < len(all); start += size {
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		chunks = append(chunks, all[start:end])
	}
	return chunks
}

func chunkHouses(all []model.House, size int) [][]model.House {
	var chunks [][]model.House
	for start := 0; start < len(all); start += size {
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		chunks = append(chunks, all[start:end])
	}
	return chunks
}
