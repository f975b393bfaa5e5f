package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/Seyyahtar/Stok73/domain"
	"github.com/Seyyahtar/Stok73/internal/config"
	"github.com/Seyyahtar/Stok73/internal/database"
	"github.com/Seyyahtar/Stok73/internal/migrations"
	"github.com/Seyyahtar/Stok73/internal/query"
	"github.com/Seyyahtar/Stok73/internal/service"
	"github.com/Seyyahtar/Stok73/internal/store"
)

const usage = `stok73 <command> [arguments]

Commands:
  login <name>          sign in
  logout                sign out
  whoami                show the current user
  stock list            list stock, grouped and summarized
  stock add             add one stock item
  stock remove          decrement a stock item
  stock edit <id>       edit a stock item
  stock delete <id>     delete a stock item
  stock import <file>   import a stock spreadsheet
  stock export [file]   export the stock as a spreadsheet
  case add              record a case and consume its materials
  case list             list recorded cases
  checklist import <file>   open a patient checklist
  checklist show            show the active checklist
  checklist check <id>      toggle a patient
  checklist complete        complete the active checklist
  history list          list the activity log
  history undo <id>     undo a logged action
  stats                 show collection sizes
  clear                 wipe collections`

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()
	migrations.Run(db)

	svc, err := service.New(store.NewSQLite(db), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load application state")
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(svc, cfg, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Hata:", err)
		os.Exit(1)
	}
}

func run(svc *service.Service, cfg config.Config, command string, args []string) error {
	switch command {
	case "login":
		if len(args) < 1 {
			return fmt.Errorf("kullanım: stok73 login <isim>")
		}
		if err := svc.Login(args[0]); err != nil {
			return err
		}
		fmt.Println("Giriş yapıldı:", args[0])
		return nil
	case "logout":
		if err := svc.Logout(); err != nil {
			return err
		}
		fmt.Println("Çıkış yapıldı")
		return nil
	case "whoami":
		user, err := svc.CurrentUser()
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("Giriş yapılmamış")
			return nil
		}
		fmt.Printf("%s (giriş: %s)\n", user.Username, user.LoginDate)
		return nil
	case "stock":
		return runStock(svc, cfg, args)
	case "case":
		return runCase(svc, args)
	case "checklist":
		return runChecklist(svc, args)
	case "history":
		return runHistory(svc, args)
	case "stats":
		stats, err := svc.CollectStats()
		if err != nil {
			return err
		}
		fmt.Printf("Stok: %d kayıt, %d adet\nVaka: %d\nGeçmiş: %d\nKontrol listesi: %d\n",
			stats.Items, stats.TotalQuantity, stats.Cases, stats.History, stats.Checklists)
		return nil
	case "clear":
		return runClear(svc, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("bilinmeyen komut: %s", command)
	}
}

func runStock(svc *service.Service, cfg config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("kullanım: stok73 stock <list|add|remove|edit|delete|import|export>")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		flags := flag.NewFlagSet("stock list", flag.ExitOnError)
		search := flags.String("search", "", "malzeme adı, seri/lot veya UBB içinde ara")
		filterNames := flags.StringSlice("filter", nil, "kategori filtreleri (lead, sheath, pacemaker, icd, crt)")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		var filters []query.Key
		for _, name := range *filterNames {
			key, ok := query.ParseKey(name)
			if !ok {
				return fmt.Errorf("bilinmeyen filtre: %s", name)
			}
			filters = append(filters, key)
		}
		printStock(svc.ListStock(*search, filters))
		return nil

	case "add":
		flags := flag.NewFlagSet("stock add", flag.ExitOnError)
		name := flags.String("name", "", "malzeme adı")
		serial := flags.String("serial", "", "seri/lot numarası")
		ubb := flags.String("ubb", "", "UBB kodu")
		expiry := flags.String("expiry", "", "son kullanma tarihi (YYYY-MM-DD)")
		qty := flags.Int("qty", 1, "miktar")
		from := flags.String("from", "", "nereden")
		to := flags.String("to", "", "nereye")
		code := flags.String("code", "", "malzeme kodu")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		item, err := svc.AddStock(service.AddStockInput{
			MaterialName:    *name,
			SerialLotNumber: *serial,
			UbbCode:         *ubb,
			ExpiryDate:      *expiry,
			Quantity:        *qty,
			From:            *from,
			To:              *to,
			MaterialCode:    *code,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Eklendi: %s (id %s)\n", item.MaterialName, item.ID)
		return nil

	case "remove":
		flags := flag.NewFlagSet("stock remove", flag.ExitOnError)
		name := flags.String("name", "", "malzeme adı")
		serial := flags.String("serial", "", "seri/lot numarası")
		qty := flags.Int("qty", 1, "miktar")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		if err := svc.RemoveStock(*name, *serial, *qty); err != nil {
			return err
		}
		fmt.Println("Stok düşüldü")
		return nil

	case "edit":
		if len(rest) < 1 {
			return fmt.Errorf("kullanım: stok73 stock edit <id> [seçenekler]")
		}
		id := rest[0]
		flags := flag.NewFlagSet("stock edit", flag.ExitOnError)
		name := flags.String("name", "", "malzeme adı")
		serial := flags.String("serial", "", "seri/lot numarası")
		ubb := flags.String("ubb", "", "UBB kodu")
		expiry := flags.String("expiry", "", "son kullanma tarihi (YYYY-MM-DD)")
		qty := flags.Int("qty", 0, "miktar")
		if err := flags.Parse(rest[1:]); err != nil {
			return err
		}
		item, err := svc.EditStock(id, service.EditStockInput{
			MaterialName:    *name,
			SerialLotNumber: *serial,
			UbbCode:         *ubb,
			ExpiryDate:      *expiry,
			Quantity:        *qty,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Güncellendi: %s (SN: %s, %d adet)\n", item.MaterialName, item.SerialLotNumber, item.Quantity)
		return nil

	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("kullanım: stok73 stock delete <id>")
		}
		if err := svc.DeleteStock(rest[0]); err != nil {
			return err
		}
		fmt.Println("Silindi")
		return nil

	case "import":
		if len(rest) < 1 {
			return fmt.Errorf("kullanım: stok73 stock import <dosya>")
		}
		f, err := os.Open(rest[0])
		if err != nil {
			return err
		}
		defer f.Close()
		result, err := svc.ImportStock(f)
		if err != nil {
			return err
		}
		fmt.Printf("İçe aktarıldı: %d eklendi, %d atlandı\n", result.Added, result.Skipped)
		return nil

	case "export":
		path := cfg.ExportPath
		if len(rest) > 0 {
			path = rest[0]
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := svc.ExportStock(f); err != nil {
			return err
		}
		fmt.Println("Dışa aktarıldı:", path)
		return nil

	default:
		return fmt.Errorf("bilinmeyen stock komutu: %s", sub)
	}
}

func runCase(svc *service.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("kullanım: stok73 case <add|list>")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		flags := flag.NewFlagSet("case add", flag.ExitOnError)
		hospital := flags.String("hospital", "", "hastane adı")
		doctor := flags.String("doctor", "", "doktor adı")
		patient := flags.String("patient", "", "hasta adı")
		date := flags.String("date", "", "vaka tarihi (YYYY-MM-DD)")
		notes := flags.String("notes", "", "notlar")
		materialArgs := flags.StringArray("material", nil, "malzeme: 'ad|seri|miktar' veya sadece seri parçası")
		if err := flags.Parse(rest); err != nil {
			return err
		}

		var materials []domain.CaseMaterial
		for _, arg := range *materialArgs {
			material, err := parseMaterial(svc, arg)
			if err != nil {
				return err
			}
			materials = append(materials, material)
		}

		record, err := svc.CreateCase(service.CaseInput{
			Date:         *date,
			HospitalName: *hospital,
			DoctorName:   *doctor,
			PatientName:  *patient,
			Notes:        *notes,
			Materials:    materials,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Vaka kaydedildi: %s (%d malzeme)\n", record.ID, len(record.Materials))
		return nil

	case "list":
		cases, err := svc.ListCases()
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			fmt.Println("Kayıtlı vaka yok")
			return nil
		}
		for _, c := range cases {
			fmt.Printf("%s  %s  %s / %s / %s  (%d malzeme)\n", c.ID, c.Date, c.HospitalName, c.DoctorName, c.PatientName, len(c.Materials))
		}
		return nil

	default:
		return fmt.Errorf("bilinmeyen case komutu: %s", sub)
	}
}

// parseMaterial accepts "name|serial|qty" or a bare serial fragment
// that resolves to exactly one stock item.
func parseMaterial(svc *service.Service, arg string) (domain.CaseMaterial, error) {
	parts := strings.Split(arg, "|")
	if len(parts) >= 3 {
		var qty int
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[2]), "%d", &qty); err != nil {
			return domain.CaseMaterial{}, fmt.Errorf("geçersiz miktar: %s", parts[2])
		}
		return domain.CaseMaterial{
			MaterialName:    strings.TrimSpace(parts[0]),
			SerialLotNumber: strings.TrimSpace(parts[1]),
			Quantity:        qty,
		}, nil
	}

	item, ok := svc.FindBySerial(arg)
	if !ok {
		return domain.CaseMaterial{}, fmt.Errorf("seri numarası tek bir kayıtla eşleşmedi: %s", arg)
	}
	return domain.CaseMaterial{
		MaterialName:    item.MaterialName,
		SerialLotNumber: item.SerialLotNumber,
		UbbCode:         item.UbbCode,
		Quantity:        1,
	}, nil
}

func runChecklist(svc *service.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("kullanım: stok73 checklist <import|show|check|complete>")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "import":
		if len(rest) < 1 {
			return fmt.Errorf("kullanım: stok73 checklist import <dosya>")
		}
		f, err := os.Open(rest[0])
		if err != nil {
			return err
		}
		defer f.Close()
		record, err := svc.ImportChecklist(f)
		if err != nil {
			return err
		}
		fmt.Printf("%s açıldı (%d hasta)\n", record.Title, len(record.Patients))
		return nil

	case "show":
		record, err := svc.ActiveChecklist()
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Println("Aktif kontrol listesi yok")
			return nil
		}
		fmt.Printf("%s (%d/%d)\n", record.Title, record.CheckedCount(), len(record.Patients))
		for _, p := range record.Patients {
			mark := " "
			if p.Checked {
				mark = "x"
			}
			fmt.Printf("  [%s] %s  %s %s  %s %s  %s  (%s)\n", mark, p.Name, p.Date, p.Time, p.ShortHospital(), p.City, p.FormatPhone(), p.ID)
		}
		return nil

	case "check":
		if len(rest) < 1 {
			return fmt.Errorf("kullanım: stok73 checklist check <hasta-id>")
		}
		return svc.TogglePatient(rest[0])

	case "complete":
		flags := flag.NewFlagSet("checklist complete", flag.ExitOnError)
		yes := flags.Bool("yes", false, "kontrol edilmemiş hastalar kalsa da tamamla")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		result, err := svc.CompleteChecklist(*yes)
		if err != nil {
			return err
		}
		if result.NeedsConfirm {
			fmt.Printf("%d/%d hasta kontrol edildi. Tamamlamak için --yes ekleyin.\n", result.Checked, result.Total)
			return nil
		}
		fmt.Printf("Tamamlandı: %d/%d hasta kontrol edildi\n", result.Checked, result.Total)
		return nil

	default:
		return fmt.Errorf("bilinmeyen checklist komutu: %s", sub)
	}
}

func runHistory(svc *service.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("kullanım: stok73 history <list|undo>")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		flags := flag.NewFlagSet("history list", flag.ExitOnError)
		recordType := flags.String("type", "", "kayıt türü (stock-add, stock-remove, stock-delete, case, checklist)")
		from := flags.String("from", "", "başlangıç günü (YYYY-MM-DD)")
		to := flags.String("to", "", "bitiş günü (YYYY-MM-DD)")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		records := svc.ListHistory(domain.HistoryType(*recordType), *from, *to)
		if len(records) == 0 {
			fmt.Println("Geçmiş kaydı yok")
			return nil
		}
		for _, record := range records {
			fmt.Printf("%s  %-12s  %s  (%s)\n", record.Date, record.Type, record.Description, record.ID)
		}
		return nil

	case "undo":
		if len(rest) < 1 {
			return fmt.Errorf("kullanım: stok73 history undo <id>")
		}
		if err := svc.Undo(rest[0]); err != nil {
			return err
		}
		fmt.Println("Geri alındı")
		return nil

	default:
		return fmt.Errorf("bilinmeyen history komutu: %s", sub)
	}
}

func runClear(svc *service.Service, args []string) error {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	stock := flags.Bool("stock", false, "stok kayıtlarını sil")
	hist := flags.Bool("history", false, "geçmişi sil")
	all := flags.Bool("all", false, "tüm verileri sil")
	yes := flags.Bool("yes", false, "onay")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("silme işlemi için --yes gerekli")
	}
	switch {
	case *all:
		return svc.ClearAll()
	case *stock:
		return svc.ClearStock()
	case *hist:
		return svc.ClearHistory()
	default:
		return fmt.Errorf("--stock, --history veya --all seçin")
	}
}

func printStock(view service.StockView) {
	if view.Items == 0 {
		fmt.Println("Eşleşen stok yok")
		return
	}
	for _, summary := range view.Summaries {
		fmt.Printf("%s: %d  ", summary.Label, summary.Total)
	}
	fmt.Printf("\nToplam: %d kayıt, %d adet\n\n", view.Items, view.Total)

	for _, prefix := range view.Groups {
		fmt.Printf("%s (%d adet)\n", prefix.Prefix, prefix.TotalQuantity)
		for _, material := range prefix.Materials {
			fmt.Printf("  %s (%d adet)\n", material.Name, material.TotalQuantity)
			for _, item := range material.Items {
				expiry := item.ExpiryDate
				if expiry == "" {
					expiry = "-"
				}
				fmt.Printf("    %-20s  SKT:%-12s  %2d adet  %s\n", item.SerialLotNumber, expiry, item.Quantity, item.ID)
			}
		}
	}
}
