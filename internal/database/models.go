package database

import (
	"time"
)

// PartitionRecord is one averaging interval's partitioning outcome
type PartitionRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement;column:id" json:"-" msgpack:"-"`
	RunID      string    `gorm:"column:run_id;index;not null" json:"run_id" msgpack:"run_id"`
	Site       string    `gorm:"column:site" json:"site" msgpack:"site"`
	Start      time.Time `gorm:"column:interval_start;index" json:"start" msgpack:"start"`
	End        time.Time `gorm:"column:interval_end" json:"end" msgpack:"end"`
	SourceFile string    `gorm:"column:source_file" json:"source_file,omitempty" msgpack:"source_file,omitempty"`

	// Interval covariance summary of the analyzed series
	CovWQ  float64 `gorm:"column:cov_wq" json:"cov_wq" msgpack:"cov_wq"`
	CovWC  float64 `gorm:"column:cov_wc" json:"cov_wc" msgpack:"cov_wc"`
	VarQ   float64 `gorm:"column:var_q" json:"var_q" msgpack:"var_q"`
	VarC   float64 `gorm:"column:var_c" json:"var_c" msgpack:"var_c"`
	CorrQC float64 `gorm:"column:corr_qc" json:"corr_qc" msgpack:"corr_qc"`

	WUE float64 `gorm:"column:wue" json:"wue" msgpack:"wue"`

	// Root solution
	CorrCpCr   float64 `gorm:"column:corr_cp_cr" json:"corr_cp_cr" msgpack:"corr_cp_cr"`
	VarCp      float64 `gorm:"column:var_cp" json:"var_cp" msgpack:"var_cp"`
	SigCr      float64 `gorm:"column:sig_cr" json:"sig_cr" msgpack:"sig_cr"`
	RootBranch string  `gorm:"column:root_branch" json:"root_branch,omitempty" msgpack:"root_branch,omitempty"`

	// Mass fluxes, kg/m^2/s
	Fq  float64 `gorm:"column:fq" json:"fq" msgpack:"fq"`
	Fqt float64 `gorm:"column:fqt" json:"fqt" msgpack:"fqt"`
	Fqe float64 `gorm:"column:fqe" json:"fqe" msgpack:"fqe"`
	Fc  float64 `gorm:"column:fc" json:"fc" msgpack:"fc"`
	Fcp float64 `gorm:"column:fcp" json:"fcp" msgpack:"fcp"`
	Fcr float64 `gorm:"column:fcr" json:"fcr" msgpack:"fcr"`

	Valid       bool   `gorm:"column:valid" json:"valid" msgpack:"valid"`
	Message     string `gorm:"column:message" json:"message,omitempty" msgpack:"message,omitempty"`
	WaveLvlLow  int    `gorm:"column:wave_lvl_low" json:"wave_lvl_low" msgpack:"wave_lvl_low"`
	WaveLvlHigh int    `gorm:"column:wave_lvl_high" json:"wave_lvl_high" msgpack:"wave_lvl_high"`
	Daytime     bool   `gorm:"column:daytime" json:"daytime" msgpack:"daytime"`

	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at" msgpack:"created_at"`
}

// TableName specifies the table name for PartitionRecord
func (PartitionRecord) TableName() string {
	return "partition_records"
}
