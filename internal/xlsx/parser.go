// Пакет xlsx — разбор месячного каталога из Excel-файла.
// Поставщик присылает каталог в свободно оформленной книге: строка
// заголовков может находиться не в первой строке, названия колонок
// встречаются на русском и английском. Парсер ищет строку заголовков,
// строит отображение колонок и извлекает видео вместе со
// встроенными миниатюрами.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerScanLimit — сколько первых строк просматривать в поисках заголовков.
const headerScanLimit = 10

// ParsedVideo — одна строка каталога после разбора.
type ParsedVideo struct {
	// Position — порядковый номер строки в листе (начиная с 1 после заголовков)
	Position int
	// Title — название (обязательное поле)
	Title string
	// TitleEn — название на английском
	TitleEn string
	// Director — режиссёр
	Director string
	// Cast — актёрский состав
	Cast string
	// Duration — длительность
	Duration string
	// Rating — возрастной рейтинг
	Rating string
	// Language — язык аудиодорожки
	Language string
	// Subtitle — язык субтитров
	Subtitle string
	// Thumbnail — байты встроенной миниатюры (nil, если нет)
	Thumbnail []byte
	// ThumbnailExt — расширение файла миниатюры («.png», «.jpeg»)
	ThumbnailExt string
}

// ParseResult — результат разбора книги.
type ParseResult struct {
	// SheetName — имя листа, из которого извлечён каталог
	SheetName string
	// Videos — строки каталога в исходном порядке
	Videos []*ParsedVideo
	// SkippedRows — количество строк, пропущенных из-за пустого названия
	SkippedRows int
}

// поле каталога, на которое отображается колонка листа.
type column int

const (
	colUnknown column = iota
	colTitle
	colTitleEn
	colDirector
	colCast
	colDuration
	colRating
	colLanguage
	colSubtitle
	colThumbnail
)

// headerAliases — известные названия колонок (в нижнем регистре).
// Сопоставление по подстроке: «Название (рус)» тоже распознаётся.
var headerAliases = []struct {
	substr string
	col    column
}{
	{"название (англ", colTitleEn},
	{"english title", colTitleEn},
	{"title (en", colTitleEn},
	{"title en", colTitleEn},
	{"название", colTitle},
	{"наименование", colTitle},
	{"title", colTitle},
	{"режисс", colDirector}, // «режиссёр» и «режиссер»
	{"director", colDirector},
	{"в ролях", colCast},
	{"актёры", colCast},
	{"актеры", colCast},
	{"cast", colCast},
	{"длительность", colDuration},
	{"хронометраж", colDuration},
	{"duration", colDuration},
	{"runtime", colDuration},
	{"рейтинг", colRating},
	{"rating", colRating},
	{"субтитры", colSubtitle},
	{"subtitle", colSubtitle},
	{"язык", colLanguage},
	{"language", colLanguage},
	{"audio", colLanguage},
	{"миниатюра", colThumbnail},
	{"обложка", colThumbnail},
	{"постер", colThumbnail},
	{"thumbnail", colThumbnail},
	{"poster", colThumbnail},
	{"image", colThumbnail},
}

// matchHeader возвращает поле каталога для ячейки заголовка.
func matchHeader(cell string) column {
	h := strings.ToLower(strings.TrimSpace(cell))
	if h == "" {
		return colUnknown
	}
	for _, a := range headerAliases {
		if strings.Contains(h, a.substr) {
			return a.col
		}
	}
	return colUnknown
}

// Parser — парсер месячных каталогов.
type Parser struct{}

// NewParser создаёт парсер каталогов.
func NewParser() *Parser {
	return &Parser{}
}

// Parse разбирает книгу Excel и возвращает строки каталога.
// Лист выбирается первый, на котором найдена строка заголовков
// с колонкой названия. Строки без названия пропускаются.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("чтение файла каталога: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("открытие книги Excel: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		result, err := p.parseSheet(f, sheet)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, fmt.Errorf("строка заголовков с колонкой названия не найдена ни на одном листе")
}

// parseSheet разбирает один лист. Возвращает (nil, nil), если на листе
// нет строки заголовков.
func (p *Parser) parseSheet(f *excelize.File, sheet string) (*ParseResult, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("чтение листа '%s': %w", sheet, err)
	}

	headerRow, mapping := findHeader(rows)
	if mapping == nil {
		return nil, nil
	}

	result := &ParseResult{SheetName: sheet}
	position := 0

	for i := headerRow + 1; i < len(rows); i++ {
		video := buildVideo(rows[i], mapping)
		if video == nil {
			// пустое название — строка-разделитель или мусор
			if !rowEmpty(rows[i]) {
				result.SkippedRows++
			}
			continue
		}

		position++
		video.Position = position

		if thumbCol, ok := mapping[colThumbnail]; ok {
			pic, ext, err := pictureAt(f, sheet, thumbCol, i)
			if err != nil {
				return nil, fmt.Errorf("извлечение миниатюры строки %d: %w", i+1, err)
			}
			video.Thumbnail = pic
			video.ThumbnailExt = ext
		}

		result.Videos = append(result.Videos, video)
	}

	if len(result.Videos) == 0 {
		return nil, fmt.Errorf("на листе '%s' не найдено ни одной строки каталога", sheet)
	}

	return result, nil
}

// findHeader ищет строку заголовков среди первых headerScanLimit строк.
// Строка считается заголовочной, если в ней распознана колонка названия.
func findHeader(rows [][]string) (int, map[column]int) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		mapping := make(map[column]int)
		for j, cell := range rows[i] {
			col := matchHeader(cell)
			if col == colUnknown {
				continue
			}
			// первая подходящая колонка выигрывает
			if _, seen := mapping[col]; !seen {
				mapping[col] = j
			}
		}
		if _, ok := mapping[colTitle]; ok {
			return i, mapping
		}
	}

	return 0, nil
}

// buildVideo собирает строку каталога. Возвращает nil при пустом названии.
func buildVideo(row []string, mapping map[column]int) *ParsedVideo {
	get := func(col column) string {
		idx, ok := mapping[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	title := get(colTitle)
	if title == "" {
		return nil
	}

	return &ParsedVideo{
		Title:    title,
		TitleEn:  get(colTitleEn),
		Director: get(colDirector),
		Cast:     get(colCast),
		Duration: get(colDuration),
		Rating:   get(colRating),
		Language: get(colLanguage),
		Subtitle: get(colSubtitle),
	}
}

// rowEmpty — true, если все ячейки строки пусты.
func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// pictureAt возвращает встроенную картинку из ячейки (колонка col,
// строка rowIdx с нуля). Возвращает (nil, "", nil), если картинки нет.
func pictureAt(f *excelize.File, sheet string, col, rowIdx int) ([]byte, string, error) {
	cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
	if err != nil {
		return nil, "", fmt.Errorf("вычисление адреса ячейки: %w", err)
	}

	pics, err := f.GetPictures(sheet, cell)
	if err != nil {
		return nil, "", fmt.Errorf("чтение картинки из ячейки %s: %w", cell, err)
	}
	if len(pics) == 0 {
		return nil, "", nil
	}

	pic := pics[0]
	ext := strings.ToLower(pic.Extension)
	if ext == "" {
		ext = ".png"
	} else if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return pic.File, ext, nil
}

// ValidateMonth проверяет формат месяца YYYY-MM.
func ValidateMonth(month string) error {
	parts := strings.Split(month, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return fmt.Errorf("месяц должен иметь формат YYYY-MM, получено '%s'", month)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2100 {
		return fmt.Errorf("некорректный год в месяце '%s'", month)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return fmt.Errorf("некорректный номер месяца в '%s'", month)
	}
	return nil
}
